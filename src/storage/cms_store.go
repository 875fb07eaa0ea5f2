package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feature-dashboard/src/models"
)

// ListClients returns all clients ordered by id
func (s *SQLiteStore) ListClients(ctx context.Context) (clients []models.Client, err error) {
	defer observe("list_clients", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer closeRows(rows)

	clients = []models.Client{}
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}
	return clients, nil
}

func (s *SQLiteStore) requireClient(ctx context.Context, clientID int) error {
	var id int
	err := s.db.QueryRowContext(ctx, `SELECT id FROM clients WHERE id = ?`, clientID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("client", clientID)
	}
	if err != nil {
		return fmt.Errorf("failed to query client: %w", err)
	}
	return nil
}

// GetCategories returns the category tree of a client. The tree root is the
// first category without a parent.
func (s *SQLiteStore) GetCategories(ctx context.Context, clientID int) (tree models.CmsCategories, err error) {
	defer observe("get_categories", time.Now(), &err)

	if err = s.requireClient(ctx, clientID); err != nil {
		return models.CmsCategories{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, name, path
		FROM categories
		WHERE client_id = ?
		ORDER BY position, id`, clientID)
	if err != nil {
		return models.CmsCategories{}, fmt.Errorf("failed to query categories: %w", err)
	}
	defer closeRows(rows)

	type node struct {
		category models.CmsCategory
		parent   sql.NullInt64
	}
	var nodes []node
	for rows.Next() {
		var n node
		if err := rows.Scan(&n.category.ID, &n.parent, &n.category.Name, &n.category.Path); err != nil {
			return models.CmsCategories{}, fmt.Errorf("failed to scan category: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err = rows.Err(); err != nil {
		return models.CmsCategories{}, fmt.Errorf("error iterating categories: %w", err)
	}

	children := make(map[int64][]models.CmsCategory)
	var roots []models.CmsCategory
	for _, n := range nodes {
		if n.parent.Valid {
			children[n.parent.Int64] = append(children[n.parent.Int64], n.category)
		} else {
			roots = append(roots, n.category)
		}
	}
	if len(roots) == 0 {
		return models.CmsCategories{}, &NotFoundError{Resource: "categories of client", ID: fmt.Sprint(clientID)}
	}

	var build func(c models.CmsCategory, depth int) models.CmsCategory
	build = func(c models.CmsCategory, depth int) models.CmsCategory {
		if depth > len(nodes) {
			return c
		}
		for _, child := range children[int64(c.ID)] {
			c.Children = append(c.Children, build(child, depth+1))
		}
		return c
	}

	return models.CmsCategories{ClientID: clientID, Category: build(roots[0], 0)}, nil
}

// ListTags returns the tags of a client
func (s *SQLiteStore) ListTags(ctx context.Context, clientID int) (tags []models.CmsTag, err error) {
	defer observe("list_tags", time.Now(), &err)

	if err = s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, client_id FROM tags WHERE client_id = ? ORDER BY name, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer closeRows(rows)

	tags = []models.CmsTag{}
	for rows.Next() {
		var t models.CmsTag
		if err := rows.Scan(&t.ID, &t.Name, &t.Type, &t.ClientID); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}
