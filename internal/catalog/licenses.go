// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/clavisproject/clavis/internal/models"
)

// LicenseOwner identifies which entity a license is attached to.
type LicenseOwner struct {
	UserID    int64
	GroupID   int64
	IpRangeID int64
}

// CreateLicense attaches a license of the named type to exactly one
// owner and assigns its ID.
func (s *Store) CreateLicense(ctx context.Context, lic *models.License, owner LicenseOwner) (err error) {
	start := time.Now()
	defer func() { observe("create_license", start, err) }()

	owners := 0
	for _, id := range []int64{owner.UserID, owner.GroupID, owner.IpRangeID} {
		if id != 0 {
			owners++
		}
	}
	if owners != 1 {
		err = fmt.Errorf("license must have exactly one owner, got %d", owners)
		return err
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO licenses (license_type_name, user_id, group_id, ip_range_id)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		lic.LicenseTypeName, nullableID(owner.UserID), nullableID(owner.GroupID), nullableID(owner.IpRangeID))
	if err = row.Scan(&lic.ID); err != nil {
		return wrapErr(err)
	}
	for _, priv := range lic.Privileges.Values() {
		if _, err = s.db.ExecContext(ctx,
			`INSERT INTO license_privileges (license_id, privilege) VALUES (?, ?)`,
			lic.ID, priv); err != nil {
			return wrapErr(err)
		}
	}
	for _, cond := range lic.Conditions.Values() {
		if _, err = s.db.ExecContext(ctx,
			`INSERT INTO license_conditions (license_id, condition) VALUES (?, ?)`,
			lic.ID, cond); err != nil {
			return wrapErr(err)
		}
	}
	return nil
}

// DeleteLicense removes a license and its privilege and condition rows.
func (s *Store) DeleteLicense(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("delete_license", start, err) }()

	if _, err = s.db.ExecContext(ctx, `DELETE FROM license_privileges WHERE license_id = ?`, id); err != nil {
		return wrapErr(err)
	}
	if _, err = s.db.ExecContext(ctx, `DELETE FROM license_conditions WHERE license_id = ?`, id); err != nil {
		return wrapErr(err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM licenses WHERE id = ?`, id)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// loadLicensesFor loads the licenses attached to one owner row. The
// ownerColumn is one of the fixed schema columns, never user input.
func (s *Store) loadLicensesFor(ctx context.Context, ownerColumn string, ownerID int64) ([]*models.License, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, license_type_name FROM licenses WHERE `+ownerColumn+` = ?`, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var licenses []*models.License
	for rows.Next() {
		lic := &models.License{}
		if err := rows.Scan(&lic.ID, &lic.LicenseTypeName); err != nil {
			return nil, err
		}
		licenses = append(licenses, lic)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, lic := range licenses {
		if lic.Privileges, err = s.loadStringSet(ctx,
			`SELECT privilege FROM license_privileges WHERE license_id = ?`, lic.ID); err != nil {
			return nil, err
		}
		if lic.Conditions, err = s.loadStringSet(ctx,
			`SELECT condition FROM license_conditions WHERE license_id = ?`, lic.ID); err != nil {
			return nil, err
		}
	}
	return licenses, nil
}

func (s *Store) deleteLicensesFor(ctx context.Context, ownerColumn string, ownerID int64) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM licenses WHERE `+ownerColumn+` = ?`, ownerID)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, id := range ids {
		if err := s.DeleteLicense(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadStringSet(ctx context.Context, query string, id int64) (models.ConditionSet, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	set := models.NewConditionSet()
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		set.Add(value)
	}
	return set, rows.Err()
}
