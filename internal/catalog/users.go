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

// GetUserByEmail returns the user with the given email, including their
// own licenses and the licenses of every group they belong to.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (u *models.User, err error) {
	start := time.Now()
	defer func() { observe("get_user_by_email", start, err) }()

	u = &models.User{}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, active, superuser FROM users WHERE email = ?`, email)
	if err = row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Active, &u.Superuser); err != nil {
		return nil, wrapErr(err)
	}
	if u.Licenses, err = s.loadLicensesFor(ctx, "user_id", u.ID); err != nil {
		return nil, wrapErr(err)
	}
	if u.Groups, err = s.loadGroupsForUser(ctx, u.ID); err != nil {
		return nil, wrapErr(err)
	}
	return u, nil
}

// CreateUser inserts a user and assigns its ID.
func (s *Store) CreateUser(ctx context.Context, u *models.User) (err error) {
	start := time.Now()
	defer func() { observe("create_user", start, err) }()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (email, display_name, active, superuser)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		u.Email, u.DisplayName, u.Active, u.Superuser)
	if err = row.Scan(&u.ID); err != nil {
		return wrapErr(err)
	}
	return nil
}

// CreateUserGroup inserts a group and assigns its ID.
func (s *Store) CreateUserGroup(ctx context.Context, g *models.UserGroup) (err error) {
	start := time.Now()
	defer func() { observe("create_user_group", start, err) }()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO user_groups (name, description) VALUES (?, ?) RETURNING id`,
		g.Name, g.Description)
	if err = row.Scan(&g.ID); err != nil {
		return wrapErr(err)
	}
	return nil
}

// AddGroupMember adds a user to a group. Adding twice is a no-op.
func (s *Store) AddGroupMember(ctx context.Context, groupID, userID int64) (err error) {
	start := time.Now()
	defer func() { observe("add_group_member", start, err) }()

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_group_members (group_id, user_id) VALUES (?, ?)`,
		groupID, userID)
	return wrapErr(err)
}

func (s *Store) loadGroupsForUser(ctx context.Context, userID int64) ([]*models.UserGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.description
		 FROM user_groups g
		 JOIN user_group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.name`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var groups []*models.UserGroup
	for rows.Next() {
		g := &models.UserGroup{}
		if err := rows.Scan(&g.ID, &g.Name, &g.Description); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, g := range groups {
		if g.Licenses, err = s.loadLicensesFor(ctx, "group_id", g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}
