package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/store"
)

// dbtx is the subset of database operations shared by *sql.DB and *sql.Tx.
// Module reads and writes take it so the same code runs standalone or
// inside a transfer transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// moduleKindInfo describes how one module kind maps onto its table. All
// kind-specific SQL lives here; everything above dispatches through it.
type moduleKindInfo struct {
	table    string
	ownerCol string
	columns  string
	scan     func(scanner interface{ Scan(dest ...any) error }) (domain.Module, error)
	insert   func(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error)
	update   func(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error)
}

var moduleKindInfos = map[domain.ModuleKind]moduleKindInfo{
	domain.ModuleKindCard: {
		table:    "cards",
		ownerCol: "user_id",
		columns: `id, user_id, tag_id, display_name, title, company, bio, theme,
			created_at, updated_at`,
		scan:   scanCard,
		insert: insertCard,
		update: updateCard,
	},
	domain.ModuleKindPlant: {
		table:    "plants",
		ownerCol: "user_id",
		columns: `id, user_id, tag_id, name, species, notes, gifted_by,
			gift_message, gifted_at, created_at, updated_at`,
		scan:   scanPlant,
		insert: insertPlant,
		update: updatePlant,
	},
	domain.ModuleKindMug: {
		table:    "mugs",
		ownerCol: "owner_id",
		columns:  `id, owner_id, tag_id, name, description, created_at, updated_at`,
		scan:     scanMug,
		insert:   insertMug,
		update:   updateMug,
	},
	domain.ModuleKindGift: {
		table:    "gifts",
		ownerCol: "sender_id",
		columns: `id, sender_id, receiver_id, tag_id, title, message, received,
			received_at, created_at, updated_at`,
		scan:   scanGift,
		insert: insertGift,
		update: updateGift,
	},
	domain.ModuleKindPage: {
		table:    "pages",
		ownerCol: "user_id",
		columns:  `id, user_id, tag_id, title, content, created_at, updated_at`,
		scan:     scanPage,
		insert:   insertPage,
		update:   updatePage,
	},
}

func kindInfo(kind domain.ModuleKind) (moduleKindInfo, error) {
	info, ok := moduleKindInfos[kind]
	if !ok {
		return moduleKindInfo{}, fmt.Errorf("unknown module kind %q", kind)
	}
	return info, nil
}

func scanCard(scanner interface{ Scan(dest ...any) error }) (domain.Module, error) {
	var c domain.Card
	var (
		tagID     sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&c.ID, &c.UserID, &tagID, &c.DisplayName, &c.Title, &c.Company,
		&c.Bio, &c.Theme, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tagID.Valid {
		c.TagID = tagID.String
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func insertCard(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error) {
	c := m.(*domain.Card)
	return q.ExecContext(ctx, `
		INSERT INTO cards (
			id, user_id, tag_id, display_name, title, company, bio, theme,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, nullString(c.TagID), c.DisplayName, c.Title, c.Company,
		c.Bio, c.Theme, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
}

func updateCard(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error) {
	c := m.(*domain.Card)
	return q.ExecContext(ctx, `
		UPDATE cards SET
			user_id = ?, tag_id = ?, display_name = ?, title = ?, company = ?,
			bio = ?, theme = ?, updated_at = ?
		WHERE id = ?`,
		c.UserID, nullString(c.TagID), c.DisplayName, c.Title, c.Company,
		c.Bio, c.Theme, formatTime(c.UpdatedAt), c.ID)
}

func scanPlant(scanner interface{ Scan(dest ...any) error }) (domain.Module, error) {
	var p domain.Plant
	var (
		tagID     sql.NullString
		giftedBy  sql.NullString
		giftedAt  sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&p.ID, &p.UserID, &tagID, &p.Name, &p.Species, &p.Notes,
		&giftedBy, &p.GiftMessage, &giftedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tagID.Valid {
		p.TagID = tagID.String
	}
	if giftedBy.Valid {
		p.GiftedBy = giftedBy.String
	}
	if p.GiftedAt, err = parseNullableTime(giftedAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func insertPlant(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error) {
	p := m.(*domain.Plant)
	return q.ExecContext(ctx, `
		INSERT INTO plants (
			id, user_id, tag_id, name, species, notes, gifted_by,
			gift_message, gifted_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, nullString(p.TagID), p.Name, p.Species, p.Notes,
		nullString(p.GiftedBy), p.GiftMessage, nullTimeString(p.GiftedAt),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
}

func updatePlant(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error) {
	p := m.(*domain.Plant)
	return q.ExecContext(ctx, `
		UPDATE plants SET
			user_id = ?, tag_id = ?, name = ?, species = ?, notes = ?,
			gifted_by = ?, gift_message = ?, gifted_at = ?, updated_at = ?
		WHERE id = ?`,
		p.UserID, nullString(p.TagID), p.Name, p.Species, p.Notes,
		nullString(p.GiftedBy), p.GiftMessage, nullTimeString(p.GiftedAt),
		formatTime(p.UpdatedAt), p.ID)
}

func scanMug(scanner interface{ Scan(dest ...any) error }) (domain.Module, error) {
	var mu domain.Mug
	var (
		tagID     sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&mu.ID, &mu.OwnerID, &tagID, &mu.Name, &mu.Description,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tagID.Valid {
		mu.TagID = tagID.String
	}
	if mu.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if mu.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &mu, nil
}

func insertMug(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error) {
	mu := m.(*domain.Mug)
	return q.ExecContext(ctx, `
		INSERT INTO mugs (
			id, owner_id, tag_id, name, description, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mu.ID, mu.OwnerID, nullString(mu.TagID), mu.Name, mu.Description,
		formatTime(mu.CreatedAt), formatTime(mu.UpdatedAt))
}

func updateMug(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error) {
	mu := m.(*domain.Mug)
	return q.ExecContext(ctx, `
		UPDATE mugs SET
			owner_id = ?, tag_id = ?, name = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		mu.OwnerID, nullString(mu.TagID), mu.Name, mu.Description,
		formatTime(mu.UpdatedAt), mu.ID)
}

func scanGift(scanner interface{ Scan(dest ...any) error }) (domain.Module, error) {
	var g domain.Gift
	var (
		receiverID sql.NullString
		tagID      sql.NullString
		received   int
		receivedAt sql.NullString
		createdAt  string
		updatedAt  string
	)

	err := scanner.Scan(
		&g.ID, &g.SenderID, &receiverID, &tagID, &g.Title, &g.Message,
		&received, &receivedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if receiverID.Valid {
		g.ReceiverID = receiverID.String
	}
	if tagID.Valid {
		g.TagID = tagID.String
	}
	g.Received = received != 0
	if g.ReceivedAt, err = parseNullableTime(receivedAt); err != nil {
		return nil, err
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func insertGift(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error) {
	g := m.(*domain.Gift)
	return q.ExecContext(ctx, `
		INSERT INTO gifts (
			id, sender_id, receiver_id, tag_id, title, message, received,
			received_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.SenderID, nullString(g.ReceiverID), nullString(g.TagID),
		g.Title, g.Message, boolToInt(g.Received), nullTimeString(g.ReceivedAt),
		formatTime(g.CreatedAt), formatTime(g.UpdatedAt))
}

func updateGift(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error) {
	g := m.(*domain.Gift)
	return q.ExecContext(ctx, `
		UPDATE gifts SET
			sender_id = ?, receiver_id = ?, tag_id = ?, title = ?, message = ?,
			received = ?, received_at = ?, updated_at = ?
		WHERE id = ?`,
		g.SenderID, nullString(g.ReceiverID), nullString(g.TagID), g.Title,
		g.Message, boolToInt(g.Received), nullTimeString(g.ReceivedAt),
		formatTime(g.UpdatedAt), g.ID)
}

func scanPage(scanner interface{ Scan(dest ...any) error }) (domain.Module, error) {
	var p domain.Page
	var (
		tagID     sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&p.ID, &p.UserID, &tagID, &p.Title, &p.Content, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tagID.Valid {
		p.TagID = tagID.String
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func insertPage(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error) {
	p := m.(*domain.Page)
	return q.ExecContext(ctx, `
		INSERT INTO pages (
			id, user_id, tag_id, title, content, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, nullString(p.TagID), p.Title, p.Content,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
}

func updatePage(ctx context.Context, q dbtx, m domain.Module) (sql.Result, error) {
	p := m.(*domain.Page)
	return q.ExecContext(ctx, `
		UPDATE pages SET
			user_id = ?, tag_id = ?, title = ?, content = ?, updated_at = ?
		WHERE id = ?`,
		p.UserID, nullString(p.TagID), p.Title, p.Content,
		formatTime(p.UpdatedAt), p.ID)
}

// CreateModule inserts a module row in the table for its kind.
// Returns store.ErrAlreadyExists on an ID or tag_id collision.
func (s *Store) CreateModule(ctx context.Context, m domain.Module) error {
	info, err := kindInfo(m.Kind())
	if err != nil {
		return err
	}

	if _, err := info.insert(ctx, s.db, m); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetModule retrieves a module by kind and ID.
// Returns store.ErrNotFound if the module does not exist.
func (s *Store) GetModule(ctx context.Context, kind domain.ModuleKind, id string) (domain.Module, error) {
	info, err := kindInfo(kind)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+info.columns+` FROM `+info.table+` WHERE id = ?`, id)

	m, err := info.scan(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetModuleByTag retrieves the module of the given kind linked to a tag.
// Returns store.ErrNotFound if no module of that kind is linked to it.
func (s *Store) GetModuleByTag(ctx context.Context, kind domain.ModuleKind, tagID string) (domain.Module, error) {
	return getModuleByTag(ctx, s.db, kind, tagID)
}

func getModuleByTag(ctx context.Context, q dbtx, kind domain.ModuleKind, tagID string) (domain.Module, error) {
	info, err := kindInfo(kind)
	if err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx,
		`SELECT `+info.columns+` FROM `+info.table+` WHERE tag_id = ?`, tagID)

	m, err := info.scan(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListUserModules returns all modules of one kind owned by a user, oldest
// first.
func (s *Store) ListUserModules(ctx context.Context, kind domain.ModuleKind, userID string) ([]domain.Module, error) {
	info, err := kindInfo(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+info.columns+` FROM `+info.table+
			` WHERE `+info.ownerCol+` = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []domain.Module
	for rows.Next() {
		m, err := info.scan(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return modules, nil
}

// UpdateModule performs a full row update in the table for the module's kind.
// Returns store.ErrNotFound if the module does not exist.
func (s *Store) UpdateModule(ctx context.Context, m domain.Module) error {
	info, err := kindInfo(m.Kind())
	if err != nil {
		return err
	}

	result, err := info.update(ctx, s.db, m)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteModule removes an unlinked module row. The delete is conditional on
// tag_id still being NULL so a racing link cannot leave a tag pointing at a
// deleted row. Returns store.ErrNotFound if the module does not exist and
// store.ErrConflict if it is linked to a tag.
func (s *Store) DeleteModule(ctx context.Context, kind domain.ModuleKind, id string) error {
	info, err := kindInfo(kind)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM `+info.table+` WHERE id = ? AND tag_id IS NULL`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM `+info.table+` WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return store.ErrConflict
}

// LinkTagModule attaches a module to a claimed tag. Both sides of the link
// are written in one transaction, each guarded by a conditional update so
// racing links resolve to one winner. Returns store.ErrConflict if the tag
// already has a module or the module is already linked elsewhere.
func (s *Store) LinkTagModule(ctx context.Context, tagID string, m domain.Module, at time.Time) error {
	info, err := kindInfo(m.Kind())
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE tags SET module_type = ?, status = ?, updated_at = ?
		WHERE id = ? AND owner_id IS NOT NULL AND module_type IS NULL`,
		string(m.Kind()), string(domain.TagStatusLinked), formatTime(at), tagID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE `+info.table+` SET tag_id = ?, updated_at = ? WHERE id = ? AND tag_id IS NULL`,
		tagID, formatTime(at), m.ModuleID())
	if err != nil {
		return err
	}
	n, err = result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}

	return tx.Commit()
}

// UnlinkTagModule detaches a tag's module and returns the tag to claimed.
// Returns store.ErrConflict if the tag is not linked to that module.
func (s *Store) UnlinkTagModule(ctx context.Context, tagID string, kind domain.ModuleKind, moduleID string, at time.Time) error {
	info, err := kindInfo(kind)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE tags SET module_type = NULL, status = ?, updated_at = ?
		WHERE id = ? AND module_type = ?`,
		string(domain.TagStatusClaimed), formatTime(at), tagID, string(kind))
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE `+info.table+` SET tag_id = NULL, updated_at = ? WHERE id = ? AND tag_id = ?`,
		formatTime(at), moduleID, tagID)
	if err != nil {
		return err
	}
	n, err = result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}

	return tx.Commit()
}
