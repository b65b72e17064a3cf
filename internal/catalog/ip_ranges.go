// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package catalog

import (
	"context"
	"time"

	"github.com/clavisproject/clavis/internal/models"
)

// GetAllIpRanges returns every IP range with its licenses loaded.
func (s *Store) GetAllIpRanges(ctx context.Context) (ranges []*models.IpRange, err error) {
	start := time.Now()
	defer func() { observe("get_all_ip_ranges", start, err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, subnet, description FROM ip_ranges ORDER BY name`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		r := &models.IpRange{}
		if err = rows.Scan(&r.ID, &r.Name, &r.Subnet, &r.Description); err != nil {
			return nil, wrapErr(err)
		}
		ranges = append(ranges, r)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	for _, r := range ranges {
		if r.Licenses, err = s.loadLicensesFor(ctx, "ip_range_id", r.ID); err != nil {
			return nil, wrapErr(err)
		}
	}
	return ranges, nil
}

// GetIpRange returns one IP range by ID with its licenses loaded.
func (s *Store) GetIpRange(ctx context.Context, id int64) (r *models.IpRange, err error) {
	start := time.Now()
	defer func() { observe("get_ip_range", start, err) }()

	r = &models.IpRange{}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, subnet, description FROM ip_ranges WHERE id = ?`, id)
	if err = row.Scan(&r.ID, &r.Name, &r.Subnet, &r.Description); err != nil {
		return nil, wrapErr(err)
	}
	if r.Licenses, err = s.loadLicensesFor(ctx, "ip_range_id", r.ID); err != nil {
		return nil, wrapErr(err)
	}
	return r, nil
}

// CreateIpRange inserts an IP range and assigns its ID. The subnet must
// already be validated by the caller.
func (s *Store) CreateIpRange(ctx context.Context, r *models.IpRange) (err error) {
	start := time.Now()
	defer func() { observe("create_ip_range", start, err) }()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO ip_ranges (name, subnet, description) VALUES (?, ?, ?) RETURNING id`,
		r.Name, r.Subnet, r.Description)
	if err = row.Scan(&r.ID); err != nil {
		return wrapErr(err)
	}
	return nil
}

// UpdateIpRange rewrites an IP range identified by ID.
func (s *Store) UpdateIpRange(ctx context.Context, r *models.IpRange) (err error) {
	start := time.Now()
	defer func() { observe("update_ip_range", start, err) }()

	res, err := s.db.ExecContext(ctx,
		`UPDATE ip_ranges SET name = ?, subnet = ?, description = ? WHERE id = ?`,
		r.Name, r.Subnet, r.Description, r.ID)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// DeleteIpRange removes an IP range and the licenses attached to it.
func (s *Store) DeleteIpRange(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("delete_ip_range", start, err) }()

	if err = s.deleteLicensesFor(ctx, "ip_range_id", id); err != nil {
		return wrapErr(err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM ip_ranges WHERE id = ?`, id)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}
