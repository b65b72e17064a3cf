// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import (
	"context"
	"path"
	"strings"

	"github.com/clavisproject/clavis/internal/logging"
	"github.com/clavisproject/clavis/internal/models"
)

// relevantLicenseTypes narrows the restricting license types to those
// that actually apply to this record and file:
//
//   - the type's name must be among the required conditions;
//   - a type with query conditions applies only when the record itself
//     matches them, verified with a hit-count probe against the index;
//   - a type with filename conditions applies only to files whose base
//     name matches the pattern, and never to record-level checks.
//
// A type with neither kind of condition applies everywhere. probes
// caches hit-count results across the files of one evaluation.
func relevantLicenseTypes(ctx context.Context, idx IndexClient, types []*models.LicenseType,
	required models.ConditionSet, recordQuery, fileName string, probes map[string]int64) ([]*models.LicenseType, error) {

	var relevant []*models.LicenseType
	for _, lt := range types {
		if !required.Contains(lt.Name) {
			continue
		}

		if qc := lt.QueryConditions(); qc != "" && recordQuery != "" {
			hits, err := probeHitCount(ctx, idx, recordQuery, qc, probes)
			if err != nil {
				return nil, err
			}
			if hits == 0 {
				logging.Debug().
					Str("license_type", lt.Name).
					Str("conditions", qc).
					Msg("License type conditions do not match the record, skipping")
				continue
			}
		}

		if fc := lt.FilenameConditions(); fc != "" {
			// A filename-restricted type applies to concrete files
			// only. Record-level checks carry no file, so the type
			// cannot restrict them.
			if fileName == "" || fileName == "*" {
				continue
			}
			if !lt.MatchesFilename(path.Base(fileName)) {
				continue
			}
		}

		relevant = append(relevant, lt)
	}
	return relevant, nil
}

// probeHitCount combines the record query with a license type's query
// conditions and counts the matches. A fragment starting with "-" is a
// prohibited clause and must not be wrapped in parentheses, or the
// query parser inverts its meaning.
func probeHitCount(ctx context.Context, idx IndexClient, recordQuery, fragment string, probes map[string]int64) (int64, error) {
	var probe string
	if strings.HasPrefix(fragment, "-") {
		probe = recordQuery + " AND " + fragment
	} else {
		probe = recordQuery + " AND (" + fragment + ")"
	}

	if hits, ok := probes[probe]; ok {
		return hits, nil
	}
	hits, err := idx.GetHitCount(ctx, probe)
	if err != nil {
		return 0, err
	}
	probes[probe] = hits
	return hits, nil
}
