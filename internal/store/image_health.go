package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"vboard/internal/models"
)

// DueFilter selects posts eligible for a verification batch.
type DueFilter struct {
	OwnerID string    // empty selects every owner
	Cutoff  time.Time // posts checked at or after the cutoff are cooling down
	Limit   int
}

// Verdict is one probe outcome to commit. ImageURL and PriorCheck are the
// values read when the post was selected; the row is only written if both
// still match. ApplyVerdicts sets Applied on rows it wrote.
type Verdict struct {
	PostID     int64
	ImageURL   string
	PriorCheck *time.Time
	Reachable  bool
	CheckedAt  time.Time
	Applied    bool
}

// PostHealthCounts aggregates post activation state.
type PostHealthCounts struct {
	Total     int
	Active    int
	Inactive  int
	Unchecked int
}

// ListPostsDueForCheck returns active posts never checked or checked before
// the cutoff, never-checked first and then oldest check first.
func (s *Store) ListPostsDueForCheck(ctx context.Context, filter DueFilter) ([]models.Post, error) {
	if filter.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	conditions := []string{
		"is_active = 1",
		"(last_image_check IS NULL OR last_image_check < ?)",
	}
	args := []any{dbFormatTime(filter.Cutoff)}
	if owner := strings.TrimSpace(filter.OwnerID); owner != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, owner)
	}
	args = append(args, filter.Limit)

	query := "SELECT " + postColumns + " FROM posts WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY last_image_check IS NOT NULL, last_image_check ASC, id ASC LIMIT ?"
	return s.queryPosts(ctx, query, args...)
}

// ApplyVerdicts commits a batch of verdicts in one transaction and returns
// how many rows were written. Applied is only meaningful when err is nil. A post that was edited, deactivated, deleted or
// re-checked since it was selected is skipped.
func (s *Store) ApplyVerdicts(ctx context.Context, verdicts []Verdict) (applied int, err error) {
	if len(verdicts) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE posts SET is_active = ?, last_image_check = ?
		WHERE id = ? AND is_active = 1 AND image_url = ?
		  AND ((? IS NULL AND last_image_check IS NULL) OR last_image_check = ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i := range verdicts {
		v := &verdicts[i]
		v.Applied = false
		prior := dbNullTime(v.PriorCheck)
		res, execErr := stmt.ExecContext(ctx,
			boolToInt(v.Reachable),
			dbFormatTime(v.CheckedAt),
			v.PostID,
			v.ImageURL,
			prior,
			prior,
		)
		if execErr != nil {
			err = fmt.Errorf("apply verdict for post %d: %w", v.PostID, execErr)
			return 0, err
		}
		n, execErr := res.RowsAffected()
		if execErr != nil {
			err = execErr
			return 0, err
		}
		if n > 0 {
			v.Applied = true
			applied++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return applied, nil
}

// SetActivation writes both lifecycle fields of one post in a single
// statement, optionally replacing the image URL. A stamp older than the
// stored one is refused so last_image_check never moves backwards.
func (s *Store) SetActivation(ctx context.Context, id int64, isActive bool, checkedAt time.Time, newImageURL *string) error {
	stamp := dbFormatTime(checkedAt)
	set := "is_active = ?, last_image_check = ?"
	args := []any{boolToInt(isActive), stamp}
	if newImageURL != nil {
		set += ", image_url = ?, updated_at = ?"
		args = append(args, *newImageURL, stamp)
	}
	args = append(args, id, stamp)

	res, err := s.db.ExecContext(ctx,
		"UPDATE posts SET "+set+" WHERE id = ? AND (last_image_check IS NULL OR last_image_check <= ?)",
		args...,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	exists, err := s.postExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleCheck
}

// CountPostHealth counts posts by activation state. Unchecked counts posts
// never checked or last checked before uncheckedCutoff.
func (s *Store) CountPostHealth(ctx context.Context, uncheckedCutoff time.Time) (PostHealthCounts, error) {
	var counts PostHealthCounts
	var active, inactive, unchecked sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			SUM(CASE WHEN is_active = 1 THEN 1 ELSE 0 END),
			SUM(CASE WHEN is_active = 0 THEN 1 ELSE 0 END),
			SUM(CASE WHEN last_image_check IS NULL OR last_image_check < ? THEN 1 ELSE 0 END)
		FROM posts
	`, dbFormatTime(uncheckedCutoff)).Scan(&counts.Total, &active, &inactive, &unchecked)
	if err != nil {
		return counts, err
	}
	counts.Active = int(active.Int64)
	counts.Inactive = int(inactive.Int64)
	counts.Unchecked = int(unchecked.Int64)
	return counts, nil
}

func (s *Store) postExists(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE id = ?", id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
