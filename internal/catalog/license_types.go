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

// GetLicenseType returns the license type with the given name.
func (s *Store) GetLicenseType(ctx context.Context, name string) (lt *models.LicenseType, err error) {
	start := time.Now()
	defer func() { observe("get_license_type", start, err) }()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, conditions, open_access, core
		 FROM license_types WHERE name = ?`, name)
	lt, err = scanLicenseType(row)
	if err != nil {
		return nil, wrapErr(err)
	}
	if err = s.loadLicenseTypePrivileges(ctx, lt); err != nil {
		return nil, wrapErr(err)
	}
	return lt, nil
}

// GetAllLicenseTypes returns every license type with privileges loaded.
func (s *Store) GetAllLicenseTypes(ctx context.Context) (types []*models.LicenseType, err error) {
	start := time.Now()
	defer func() { observe("get_all_license_types", start, err) }()
	types, err = s.queryLicenseTypes(ctx,
		`SELECT id, name, description, conditions, open_access, core
		 FROM license_types ORDER BY name`)
	return types, wrapErr(err)
}

// GetNonOpenAccessLicenseTypes returns the license types that restrict
// access. These are the only types relevant during evaluation.
func (s *Store) GetNonOpenAccessLicenseTypes(ctx context.Context) (types []*models.LicenseType, err error) {
	start := time.Now()
	defer func() { observe("get_non_open_access_license_types", start, err) }()
	types, err = s.queryLicenseTypes(ctx,
		`SELECT id, name, description, conditions, open_access, core
		 FROM license_types WHERE NOT open_access ORDER BY name`)
	return types, wrapErr(err)
}

// CreateLicenseType inserts a license type and assigns its ID.
func (s *Store) CreateLicenseType(ctx context.Context, lt *models.LicenseType) (err error) {
	start := time.Now()
	defer func() { observe("create_license_type", start, err) }()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO license_types (name, description, conditions, open_access, core)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		lt.Name, lt.Description, lt.Conditions, lt.OpenAccess, lt.Core)
	if err = row.Scan(&lt.ID); err != nil {
		return wrapErr(err)
	}
	if err = s.replaceLicenseTypePrivileges(ctx, lt); err != nil {
		return wrapErr(err)
	}
	return nil
}

// UpdateLicenseType rewrites a license type identified by ID.
func (s *Store) UpdateLicenseType(ctx context.Context, lt *models.LicenseType) (err error) {
	start := time.Now()
	defer func() { observe("update_license_type", start, err) }()

	res, err := s.db.ExecContext(ctx,
		`UPDATE license_types
		 SET name = ?, description = ?, conditions = ?, open_access = ?, core = ?
		 WHERE id = ?`,
		lt.Name, lt.Description, lt.Conditions, lt.OpenAccess, lt.Core, lt.ID)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	if err = s.replaceLicenseTypePrivileges(ctx, lt); err != nil {
		return wrapErr(err)
	}
	return nil
}

// DeleteLicenseType removes a license type. Core types cannot be
// deleted.
func (s *Store) DeleteLicenseType(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("delete_license_type", start, err) }()

	var core bool
	row := s.db.QueryRowContext(ctx, `SELECT core FROM license_types WHERE id = ?`, id)
	if err = row.Scan(&core); err != nil {
		return wrapErr(err)
	}
	if core {
		err = fmt.Errorf("license type %d is a core type and cannot be deleted", id)
		return err
	}
	if _, err = s.db.ExecContext(ctx, `DELETE FROM license_type_privileges WHERE license_type_id = ?`, id); err != nil {
		return wrapErr(err)
	}
	if _, err = s.db.ExecContext(ctx, `DELETE FROM license_types WHERE id = ?`, id); err != nil {
		return wrapErr(err)
	}
	return nil
}

func (s *Store) queryLicenseTypes(ctx context.Context, query string, args ...any) ([]*models.LicenseType, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var types []*models.LicenseType
	for rows.Next() {
		lt, err := scanLicenseType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, lt := range types {
		if err := s.loadLicenseTypePrivileges(ctx, lt); err != nil {
			return nil, err
		}
	}
	return types, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLicenseType(row rowScanner) (*models.LicenseType, error) {
	lt := &models.LicenseType{}
	err := row.Scan(&lt.ID, &lt.Name, &lt.Description, &lt.Conditions, &lt.OpenAccess, &lt.Core)
	if err != nil {
		return nil, err
	}
	return lt, nil
}

func (s *Store) loadLicenseTypePrivileges(ctx context.Context, lt *models.LicenseType) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT privilege FROM license_type_privileges WHERE license_type_id = ?`, lt.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	lt.Privileges = models.NewConditionSet()
	for rows.Next() {
		var priv string
		if err := rows.Scan(&priv); err != nil {
			return err
		}
		lt.Privileges.Add(priv)
	}
	return rows.Err()
}

func (s *Store) replaceLicenseTypePrivileges(ctx context.Context, lt *models.LicenseType) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM license_type_privileges WHERE license_type_id = ?`, lt.ID); err != nil {
		return err
	}
	for _, priv := range lt.Privileges.Values() {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO license_type_privileges (license_type_id, privilege) VALUES (?, ?)`,
			lt.ID, priv); err != nil {
			return err
		}
	}
	return nil
}
