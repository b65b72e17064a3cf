// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

// Package access implements the permission evaluation engine: condition
// resolution against the search index, relevance filtering of license
// types, the evaluation algorithm itself and the session decision cache.
package access

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/clavisproject/clavis/internal/index"
	"github.com/clavisproject/clavis/internal/models"
)

// IndexClient is the slice of the index client the engine consumes.
type IndexClient interface {
	Search(ctx context.Context, query string, rows int, fields []string) ([]index.Doc, error)
	GetFirstDoc(ctx context.Context, query string, fields []string) (index.Doc, error)
	GetHitCount(ctx context.Context, query string) (int64, error)
	MaxHits() int
}

// conditionFields is the field list fetched when resolving conditions.
var conditionFields = []string{
	index.FieldAccessCondition,
	index.FieldFilename,
	index.FieldFilenameWebM,
	index.FieldFilenameMP4,
	index.FieldFilenameMPEG3,
	index.FieldFilenameOGG,
	index.FieldLogID,
}

// Resolver answers "which access conditions protect this resource" by
// querying the search index.
type Resolver struct {
	index IndexClient
}

// NewResolver builds a resolver on top of an index client.
func NewResolver(idx IndexClient) *Resolver {
	return &Resolver{index: idx}
}

// filenameQueryClause routes a file name to the index field that holds
// it. Media files are indexed under format-specific fields; text
// formats match on the stem because derivatives share it.
func filenameQueryClause(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	stem := strings.TrimSuffix(fileName, path.Ext(fileName))

	switch ext {
	case "webm":
		return index.FieldFilenameWebM + ":" + index.EscapeValue(fileName)
	case "mp4":
		return index.FieldFilenameMP4 + ":" + index.EscapeValue(fileName)
	case "mp3":
		return index.FieldFilenameMPEG3 + ":" + index.EscapeValue(fileName)
	case "ogg", "ogv":
		return index.FieldFilenameOGG + ":" + index.EscapeValue(fileName)
	case "txt", "xml":
		return index.FieldFilename + ":" + index.EscapeValue(stem) + ".*"
	case "":
		return index.FieldFilename + ":" + index.EscapeValue(fileName) + ".*"
	default:
		return index.FieldFilename + ":" + index.EscapeValue(fileName)
	}
}

// ResolveFileConditions returns the access conditions per file of the
// record. A concrete fileName yields a single-key map; "*" yields one
// key per file of the record. The returned query is the one used for
// retrieval, reused by the relevance filter's hit-count probe.
//
// An unknown record or file resolves to an empty map, not an error.
func (r *Resolver) ResolveFileConditions(ctx context.Context, pi, fileName string) (map[string]models.ConditionSet, string, error) {
	if pi == "" || fileName == "" {
		return nil, "", fmt.Errorf("%w: record identifier and file name are required", ErrInvalidInput)
	}

	var query string
	if fileName == "*" {
		query = fmt.Sprintf("+%s:%s +%s:*", index.FieldPITopstruct, index.EscapeValue(pi), index.FieldFilename)
	} else {
		query = fmt.Sprintf("+%s:%s +%s", index.FieldPITopstruct, index.EscapeValue(pi), filenameQueryClause(fileName))
	}

	docs, err := r.index.Search(ctx, query, r.index.MaxHits(), conditionFields)
	if err != nil {
		return nil, "", err
	}

	conditions := make(map[string]models.ConditionSet)
	for _, doc := range docs {
		key := fileName
		if fileName == "*" {
			if key = docFilename(doc); key == "" {
				continue
			}
		}
		set, ok := conditions[key]
		if !ok {
			set = models.NewConditionSet()
			conditions[key] = set
		}
		for _, c := range doc.Strings(index.FieldAccessCondition) {
			set.Add(c)
		}
	}
	return conditions, query, nil
}

// docFilename returns the file name a page document is indexed under,
// checking the media-specific fields after the generic one.
func docFilename(doc index.Doc) string {
	for _, field := range []string{
		index.FieldFilename,
		index.FieldFilenameWebM,
		index.FieldFilenameMP4,
		index.FieldFilenameMPEG3,
		index.FieldFilenameOGG,
	} {
		if name := doc.FirstString(field); name != "" {
			return name
		}
	}
	return ""
}

// ResolveRecordConditions returns the conditions of a record's top
// document, or of the structure element named by logID. A missing
// record yields ErrRecordNotFound.
func (r *Resolver) ResolveRecordConditions(ctx context.Context, pi, logID string) (models.ConditionSet, string, error) {
	if pi == "" {
		return nil, "", fmt.Errorf("%w: record identifier is required", ErrInvalidInput)
	}

	var query string
	if logID == "" {
		query = fmt.Sprintf("+%s:%s +%s:%s",
			index.FieldPI, index.EscapeValue(pi),
			index.FieldDocType, index.DocTypeDocstruct)
	} else {
		query = fmt.Sprintf("+%s:%s +%s:%s +%s:%s",
			index.FieldPITopstruct, index.EscapeValue(pi),
			index.FieldLogID, index.EscapeValue(logID),
			index.FieldDocType, index.DocTypeDocstruct)
	}

	doc, err := r.index.GetFirstDoc(ctx, query, conditionFields)
	if err != nil {
		return nil, "", err
	}
	if doc == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrRecordNotFound, pi)
	}
	return models.NewConditionSet(doc.Strings(index.FieldAccessCondition)...), query, nil
}

// ResolveAllStructConditions returns the conditions of every structure
// element of a record, keyed by LOGID.
func (r *Resolver) ResolveAllStructConditions(ctx context.Context, pi string) (map[string]models.ConditionSet, string, error) {
	if pi == "" {
		return nil, "", fmt.Errorf("%w: record identifier is required", ErrInvalidInput)
	}

	query := fmt.Sprintf("+%s:%s +%s:%s",
		index.FieldPITopstruct, index.EscapeValue(pi),
		index.FieldDocType, index.DocTypeDocstruct)

	docs, err := r.index.Search(ctx, query, r.index.MaxHits(), conditionFields)
	if err != nil {
		return nil, "", err
	}

	conditions := make(map[string]models.ConditionSet, len(docs))
	for _, doc := range docs {
		logID := doc.FirstString(index.FieldLogID)
		if logID == "" {
			continue
		}
		set, ok := conditions[logID]
		if !ok {
			set = models.NewConditionSet()
			conditions[logID] = set
		}
		for _, c := range doc.Strings(index.FieldAccessCondition) {
			set.Add(c)
		}
	}
	return conditions, query, nil
}

// ResolveImageUrnConditions returns the conditions of the page
// identified by a persistent image URN. An unknown URN resolves to an
// empty set.
func (r *Resolver) ResolveImageUrnConditions(ctx context.Context, urn string) (models.ConditionSet, string, error) {
	if urn == "" {
		return nil, "", fmt.Errorf("%w: image URN is required", ErrInvalidInput)
	}

	query := index.FieldImageURN + ":" + index.EscapeValue(urn)
	doc, err := r.index.GetFirstDoc(ctx, query, conditionFields)
	if err != nil {
		return nil, "", err
	}
	if doc == nil {
		return models.NewConditionSet(), query, nil
	}
	return models.NewConditionSet(doc.Strings(index.FieldAccessCondition)...), query, nil
}

// ResolvePageOrderConditions returns the conditions of the page with
// the given physical order number.
func (r *Resolver) ResolvePageOrderConditions(ctx context.Context, pi string, order int) (models.ConditionSet, string, error) {
	if pi == "" {
		return nil, "", fmt.Errorf("%w: record identifier is required", ErrInvalidInput)
	}

	query := fmt.Sprintf("+%s:%s +%s:%d",
		index.FieldPITopstruct, index.EscapeValue(pi),
		index.FieldOrder, order)

	docs, err := r.index.Search(ctx, query, r.index.MaxHits(), conditionFields)
	if err != nil {
		return nil, "", err
	}

	set := models.NewConditionSet()
	for _, doc := range docs {
		for _, c := range doc.Strings(index.FieldAccessCondition) {
			set.Add(c)
		}
	}
	return set, query, nil
}
