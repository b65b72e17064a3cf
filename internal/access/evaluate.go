// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/clavisproject/clavis/internal/logging"
	"github.com/clavisproject/clavis/internal/metrics"
	"github.com/clavisproject/clavis/internal/models"
)

// Catalog is the slice of the catalog store the engine consumes.
type Catalog interface {
	GetAllLicenseTypes(ctx context.Context) ([]*models.LicenseType, error)
	GetAllIpRanges(ctx context.Context) ([]*models.IpRange, error)
}

// Config holds the engine's evaluation policy knobs.
type Config struct {
	// CacheEnabled toggles the session decision cache.
	CacheEnabled bool

	// FullAccessForLocalhost grants every privilege to loopback clients.
	FullAccessForLocalhost bool
}

// Engine evaluates access permissions. It is safe for concurrent use.
type Engine struct {
	resolver *Resolver
	index    IndexClient
	catalog  Catalog
	cache    SessionCache
	cfg      Config
}

// NewEngine wires the engine from its collaborators.
func NewEngine(idx IndexClient, catalog Catalog, cache SessionCache, cfg Config) *Engine {
	return &Engine{
		resolver: NewResolver(idx),
		index:    idx,
		catalog:  catalog,
		cache:    cache,
		cfg:      cfg,
	}
}

// Resolver exposes the engine's condition resolver for read-only use.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// singleKey is the map key used when evaluating one condition set
// without a file context.
const singleKey = ""

// evaluate runs the evaluation algorithm over a per-file condition map
// and returns the per-file decision map. recordQuery is the query that
// produced the conditions, reused for relevance probing.
func (e *Engine) evaluate(ctx context.Context, required map[string]models.ConditionSet,
	priv models.Privilege, user *models.User, remoteAddr, recordQuery string) (map[string]bool, error) {

	decisions := make(map[string]bool, len(required))
	for key := range required {
		decisions[key] = false
	}

	allTypes, err := e.catalog.GetAllLicenseTypes(ctx)
	if err != nil {
		return nil, err
	}
	restricting := make([]*models.LicenseType, 0, len(allTypes))
	for _, lt := range allTypes {
		if !lt.OpenAccess {
			restricting = append(restricting, lt)
		}
	}

	// Loaded on first use; most evaluations never need the IP ranges.
	var ranges []*models.IpRange
	rangesLoaded := false

	probes := make(map[string]int64)
	for key, conditions := range required {
		// No conditions at all: the resource is unrestricted.
		if conditions == nil || conditions.Empty() {
			decisions[key] = true
			continue
		}

		if IsFreeOpenAccess(conditions, allTypes) {
			decisions[key] = true
			continue
		}

		// Nothing configured to restrict, or nothing asked for.
		if len(restricting) == 0 || priv == "" {
			decisions[key] = true
			continue
		}

		relevant, err := relevantLicenseTypes(ctx, e.index, restricting, conditions, recordQuery, key, probes)
		if err != nil {
			return nil, err
		}
		if len(relevant) == 0 {
			decisions[key] = true
			continue
		}

		// From here on the requirement is the set of relevant type
		// names: a condition tag without a configured license type
		// cannot be licensed and must not be demanded of the caller.
		demanded := models.NewConditionSet()
		for _, lt := range relevant {
			demanded.Add(lt.Name)
		}

		if allAllowByDefault(relevant, priv) {
			decisions[key] = true
			continue
		}

		if IsFreeOpenAccess(demanded, relevant) {
			decisions[key] = true
			continue
		}

		if e.cfg.FullAccessForLocalhost && isLoopback(remoteAddr) {
			decisions[key] = true
			continue
		}

		if remoteAddr != "" {
			if !rangesLoaded {
				if ranges, err = e.catalog.GetAllIpRanges(ctx); err != nil {
					return nil, err
				}
				rangesLoaded = true
			}
			matched := false
			for _, r := range ranges {
				if r.Matches(remoteAddr) && r.CanSatisfyAll(demanded, allTypes, priv) {
					matched = true
					break
				}
			}
			if matched {
				decisions[key] = true
				continue
			}
		}

		if user != nil && user.CanSatisfyAll(demanded, allTypes, priv) {
			decisions[key] = true
			continue
		}

		logging.Ctx(ctx).Debug().
			Str("key", key).
			Str("privilege", priv.String()).
			Msg("Access denied")
	}
	return decisions, nil
}

// allAllowByDefault reports whether every relevant license type grants
// the privilege without requiring a license.
func allAllowByDefault(types []*models.LicenseType, priv models.Privilege) bool {
	for _, lt := range types {
		if !lt.AllowsByDefault(priv) {
			return false
		}
	}
	return len(types) > 0
}

// isLoopback reports whether the remote address is the local machine.
func isLoopback(remoteAddr string) bool {
	if strings.EqualFold(remoteAddr, "localhost") {
		return true
	}
	addr, err := netip.ParseAddr(remoteAddr)
	if err != nil {
		return false
	}
	if addr.Is4In6() {
		addr = addr.Unmap()
	}
	return addr.IsLoopback()
}

// evaluateSingle evaluates one condition set and collapses the result:
// granted iff nothing evaluated to false.
func (e *Engine) evaluateSingle(ctx context.Context, conditions models.ConditionSet,
	priv models.Privilege, user *models.User, remoteAddr, recordQuery string) (bool, error) {

	decisions, err := e.evaluate(ctx, map[string]models.ConditionSet{singleKey: conditions},
		priv, user, remoteAddr, recordQuery)
	if err != nil {
		return false, err
	}
	for _, granted := range decisions {
		if !granted {
			return false, nil
		}
	}
	return true, nil
}

// useCache reports whether decisions for this session may be cached.
func (e *Engine) useCache(sess *Session) bool {
	return e.cfg.CacheEnabled && e.cache != nil && sess != nil && sess.ID != ""
}

// sessionUser returns the session's user, or nil for anonymous calls.
func sessionUser(sess *Session) *models.User {
	if sess == nil {
		return nil
	}
	return sess.User
}

func sessionAddr(sess *Session) string {
	if sess == nil {
		return ""
	}
	return sess.RemoteAddr
}

// CheckAccessPermissionByIdentifierAndFileName decides whether the
// requester may exercise priv on one file of a record.
func (e *Engine) CheckAccessPermissionByIdentifierAndFileName(ctx context.Context, sess *Session,
	pi, fileName string, priv models.Privilege) (granted bool, err error) {

	start := time.Now()
	defer func() {
		if err != nil {
			metrics.RecordAccessError(priv.String())
		} else {
			metrics.RecordAccessDecision(priv.String(), granted, time.Since(start))
		}
	}()

	if pi == "" || fileName == "" {
		return false, fmt.Errorf("%w: record identifier and file name are required", ErrInvalidInput)
	}

	key := DecisionKey(pi, fileName)
	if e.useCache(sess) {
		e.cache.TrackRecord(sess.ID, pi)
		if cached, ok := e.cache.Get(sess.ID, priv, key); ok {
			return cached, nil
		}
	}

	required, query, err := e.resolver.ResolveFileConditions(ctx, pi, fileName)
	if err != nil {
		return false, err
	}
	conditions := required[fileName]

	decisions, err := e.evaluate(ctx, map[string]models.ConditionSet{fileName: conditions},
		priv, sessionUser(sess), sessionAddr(sess), query)
	if err != nil {
		return false, err
	}
	granted = decisions[fileName]

	if e.useCache(sess) {
		e.cache.Put(sess.ID, priv, key, granted)
	}
	return granted, nil
}

// CheckAccessPermissionByIdentifierAndFilePath accepts the alto and
// fulltext path form "<prefix>/<pi>/<fileName>".
func (e *Engine) CheckAccessPermissionByIdentifierAndFilePath(ctx context.Context, sess *Session,
	filePath string, priv models.Privilege) (bool, error) {

	parts := strings.Split(strings.Trim(filePath, "/"), "/")
	if len(parts) != 3 {
		return false, fmt.Errorf("%w: file path %q must have the form prefix/identifier/file", ErrInvalidInput, filePath)
	}
	return e.CheckAccessPermissionByIdentifierAndFileName(ctx, sess, parts[1], parts[2], priv)
}

// CheckAccessPermissionByIdentifierAndLogId decides whether the
// requester may exercise priv on a record or one of its structure
// elements. An unknown record yields ErrRecordNotFound.
func (e *Engine) CheckAccessPermissionByIdentifierAndLogId(ctx context.Context, sess *Session,
	pi, logID string, priv models.Privilege) (granted bool, err error) {

	start := time.Now()
	defer func() {
		if err != nil {
			metrics.RecordAccessError(priv.String())
		} else {
			metrics.RecordAccessDecision(priv.String(), granted, time.Since(start))
		}
	}()

	if pi == "" {
		return false, fmt.Errorf("%w: record identifier is required", ErrInvalidInput)
	}

	key := DecisionKey(pi, logID)
	if e.useCache(sess) {
		e.cache.TrackRecord(sess.ID, pi)
		if cached, ok := e.cache.Get(sess.ID, priv, key); ok {
			return cached, nil
		}
	}

	conditions, query, err := e.resolver.ResolveRecordConditions(ctx, pi, logID)
	if err != nil {
		return false, err
	}

	granted, err = e.evaluateSingle(ctx, conditions, priv, sessionUser(sess), sessionAddr(sess), query)
	if err != nil {
		return false, err
	}
	if e.useCache(sess) {
		e.cache.Put(sess.ID, priv, key, granted)
	}
	return granted, nil
}

// CheckAccessPermissionForAllLogids returns the decision for every
// structure element of a record, keyed by LOGID.
func (e *Engine) CheckAccessPermissionForAllLogids(ctx context.Context, sess *Session,
	pi string, priv models.Privilege) (map[string]bool, error) {

	if pi == "" {
		return nil, fmt.Errorf("%w: record identifier is required", ErrInvalidInput)
	}

	required, query, err := e.resolver.ResolveAllStructConditions(ctx, pi)
	if err != nil {
		return nil, err
	}

	results := make(map[string]bool, len(required))
	pending := make(map[string]models.ConditionSet)

	caching := e.useCache(sess)
	if caching {
		e.cache.TrackRecord(sess.ID, pi)
	}
	for logID, conditions := range required {
		if caching {
			if cached, ok := e.cache.Get(sess.ID, priv, DecisionKey(pi, logID)); ok {
				results[logID] = cached
				continue
			}
		}
		pending[logID] = conditions
	}

	if len(pending) > 0 {
		decisions, err := e.evaluate(ctx, pending, priv, sessionUser(sess), sessionAddr(sess), query)
		if err != nil {
			return nil, err
		}
		fresh := make(map[string]bool, len(decisions))
		for logID, granted := range decisions {
			results[logID] = granted
			fresh[DecisionKey(pi, logID)] = granted
		}
		if caching {
			e.cache.PutAll(sess.ID, priv, fresh)
		}
	}
	return results, nil
}

// CheckAccessPermissionByImageUrn decides access to the page identified
// by a persistent image URN.
func (e *Engine) CheckAccessPermissionByImageUrn(ctx context.Context, sess *Session,
	urn string, priv models.Privilege) (bool, error) {

	if urn == "" {
		return false, fmt.Errorf("%w: image URN is required", ErrInvalidInput)
	}

	if e.useCache(sess) {
		if cached, ok := e.cache.Get(sess.ID, priv, urn); ok {
			return cached, nil
		}
	}

	conditions, query, err := e.resolver.ResolveImageUrnConditions(ctx, urn)
	if err != nil {
		return false, err
	}
	granted, err := e.evaluateSingle(ctx, conditions, priv, sessionUser(sess), sessionAddr(sess), query)
	if err != nil {
		return false, err
	}
	if e.useCache(sess) {
		e.cache.Put(sess.ID, priv, urn, granted)
	}
	return granted, nil
}

// CheckAccessPermissionByPageOrder decides access to the page with the
// given physical order number.
func (e *Engine) CheckAccessPermissionByPageOrder(ctx context.Context, sess *Session,
	pi string, order int, priv models.Privilege) (bool, error) {

	if pi == "" {
		return false, fmt.Errorf("%w: record identifier is required", ErrInvalidInput)
	}

	key := DecisionKey(pi, strconv.Itoa(order))
	if e.useCache(sess) {
		e.cache.TrackRecord(sess.ID, pi)
		if cached, ok := e.cache.Get(sess.ID, priv, key); ok {
			return cached, nil
		}
	}

	conditions, query, err := e.resolver.ResolvePageOrderConditions(ctx, pi, order)
	if err != nil {
		return false, err
	}
	granted, err := e.evaluateSingle(ctx, conditions, priv, sessionUser(sess), sessionAddr(sess), query)
	if err != nil {
		return false, err
	}
	if e.useCache(sess) {
		e.cache.Put(sess.ID, priv, key, granted)
	}
	return granted, nil
}

// CheckContentFileAccess decides, for a batch of content files of one
// record, whether the requester may download the originals. The result
// contains exactly the requested files.
func (e *Engine) CheckContentFileAccess(ctx context.Context, sess *Session,
	pi string, files []string) (map[string]bool, error) {

	if pi == "" || len(files) == 0 {
		return nil, fmt.Errorf("%w: record identifier and at least one file are required", ErrInvalidInput)
	}
	priv := models.PrivDownloadOriginalContent

	resolved, query, err := e.resolver.ResolveFileConditions(ctx, pi, "*")
	if err != nil {
		return nil, err
	}

	results := make(map[string]bool, len(files))
	pending := make(map[string]models.ConditionSet)

	caching := e.useCache(sess)
	if caching {
		e.cache.TrackRecord(sess.ID, pi)
	}
	for _, file := range files {
		if _, done := results[file]; done {
			continue
		}
		if _, queued := pending[file]; queued {
			continue
		}
		if caching {
			if cached, ok := e.cache.Get(sess.ID, priv, DecisionKey(pi, file)); ok {
				results[file] = cached
				continue
			}
		}
		conditions := resolved[file]
		if conditions == nil {
			conditions = models.NewConditionSet()
		}
		pending[file] = conditions
	}

	if len(pending) > 0 {
		decisions, err := e.evaluate(ctx, pending, priv, sessionUser(sess), sessionAddr(sess), query)
		if err != nil {
			return nil, err
		}
		fresh := make(map[string]bool, len(decisions))
		for file, granted := range decisions {
			results[file] = granted
			fresh[DecisionKey(pi, file)] = granted
		}
		if caching {
			e.cache.PutAll(sess.ID, priv, fresh)
		}
	}
	return results, nil
}
