// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package index

import "strings"

// Index schema field names.
const (
	FieldPI              = "PI"
	FieldPITopstruct     = "PI_TOPSTRUCT"
	FieldLogID           = "LOGID"
	FieldOrder           = "ORDER"
	FieldDocType         = "DOCTYPE"
	FieldAccessCondition = "ACCESSCONDITION"
	FieldFilename        = "FILENAME"
	FieldFilenameWebM    = "FILENAME_WEBM"
	FieldFilenameMP4     = "FILENAME_MP4"
	FieldFilenameMPEG3   = "FILENAME_MPEG3"
	FieldFilenameOGG     = "FILENAME_OGG"
	FieldImageURN        = "IMAGEURN"
)

// DocTypeDocstruct identifies structure documents as opposed to page or
// metadata documents.
const DocTypeDocstruct = "DOCSTRCT"

// solrSpecialChars are the Lucene query syntax characters that must be
// escaped when a literal value is embedded in a query.
var solrEscaper = strings.NewReplacer(
	`\`, `\\`,
	`+`, `\+`,
	`-`, `\-`,
	`&`, `\&`,
	`|`, `\|`,
	`!`, `\!`,
	`(`, `\(`,
	`)`, `\)`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`^`, `\^`,
	`"`, `\"`,
	`~`, `\~`,
	`*`, `\*`,
	`?`, `\?`,
	`:`, `\:`,
	`/`, `\/`,
	` `, `\ `,
)

// EscapeValue escapes Lucene query syntax characters in a literal term.
func EscapeValue(value string) string {
	return solrEscaper.Replace(value)
}
