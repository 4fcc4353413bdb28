package dbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	store "dupreview/internal/db"
	"dupreview/internal/models"
	"dupreview/internal/utils"
)

type assetRepo struct {
	db *sql.DB
}

func NewAssetStore(DB *sql.DB) store.AssetStore {
	return &assetRepo{
		db: DB,
	}
}

// CreateAsset upserts by path so that a rescan refreshes the stored row.
func (r *assetRepo) CreateAsset(ctx context.Context, asset *models.Asset) error {
	cols, placeholders, vals, err := buildInsertQueryAndValues(asset)
	if err != nil {
		return fmt.Errorf("build insert data for asset: %w", err)
	}

	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		if col == "path" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}

	query := fmt.Sprintf(
		"INSERT INTO asset (%s) VALUES (%s) ON CONFLICT(path) DO UPDATE SET %s RETURNING id;",
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, vals...).Scan(&id); err != nil {
		return fmt.Errorf("insert asset %q: %w", asset.Path, err)
	}
	asset.ID = id
	return nil
}

func (r *assetRepo) GetAssetByPath(ctx context.Context, path string) (*models.Asset, error) {
	var asset models.Asset
	err := sqlscan.Get(ctx, r.db, &asset, `
		SELECT *
		FROM asset
		WHERE path = ?;
	`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %q: %w", path, store.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("error retrieving asset: %w", err)
	}
	return &asset, nil
}

func (r *assetRepo) GetAssetsByIDs(ctx context.Context, ids []int64) ([]*models.Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT *
		FROM asset
		WHERE id IN (%s)
		ORDER BY id;
	`, utils.Placeholders(len(ids)))

	var assets []*models.Asset
	if err := sqlscan.Select(ctx, r.db, &assets, query, utils.ToInterfaceSlice(ids)...); err != nil {
		return nil, fmt.Errorf("querying assets by IDs: %w", err)
	}
	return assets, nil
}

func (r *assetRepo) GetAllAssets(ctx context.Context) ([]*models.Asset, error) {
	var assets []*models.Asset
	err := sqlscan.Select(ctx, r.db, &assets, `
		SELECT *
		FROM asset
		ORDER BY id;
	`)
	if err != nil {
		return nil, fmt.Errorf("error retrieving all assets: %w", err)
	}
	return assets, nil
}

// BulkUpdateBuckets writes the bucket of every asset in a single transaction.
func (r *assetRepo) BulkUpdateBuckets(ctx context.Context, assets []*models.Asset) (err error) {
	if len(assets) == 0 {
		slog.Info("No bucket updates provided")
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Panic during transaction, rolling back", slog.Any("panic", p))
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
			slog.Error("Transaction rolled back due to error", slog.Any("error", err))
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `UPDATE asset SET bucket = ? WHERE id = ?;`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range assets {
		if a == nil {
			slog.Warn("Skipping nil asset in bucket updates")
			continue
		}
		if _, err = stmt.ExecContext(ctx, a.Bucket, a.ID); err != nil {
			return fmt.Errorf("update bucket for asset ID %d: %w", a.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	slog.Info("Successfully updated asset buckets", slog.Int("count", len(assets)))
	return nil
}

func (r *assetRepo) GetDuplicateGroups(ctx context.Context) ([][]models.Asset, error) {
	var assets []models.Asset
	err := sqlscan.Select(ctx, r.db, &assets, `
		SELECT *
		FROM asset
		WHERE bucket IN (
			SELECT bucket
			FROM asset
			WHERE bucket != ?
			GROUP BY bucket
			HAVING COUNT(*) > 1
		)
		ORDER BY bucket, id;
	`, models.NoBucket)
	if err != nil {
		return nil, fmt.Errorf("querying duplicate groups: %w", err)
	}

	var groups [][]models.Asset
	for i, a := range assets {
		if i == 0 || a.Bucket != assets[i-1].Bucket {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], a)
	}
	return groups, nil
}

func (r *assetRepo) DeleteAssetByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM asset WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete asset ID %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("asset ID %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *assetRepo) AddExemptPath(ctx context.Context, path string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exempt_path (path) VALUES (?)
		ON CONFLICT(path) DO NOTHING;
	`, path)
	if err != nil {
		return fmt.Errorf("insert exempt path %q: %w", path, err)
	}
	return nil
}

func (r *assetRepo) GetExemptPaths(ctx context.Context) ([]string, error) {
	var paths []string
	if err := sqlscan.Select(ctx, r.db, &paths, `SELECT path FROM exempt_path ORDER BY path;`); err != nil {
		return nil, fmt.Errorf("querying exempt paths: %w", err)
	}
	return paths, nil
}

// buildInsertQueryAndValues generates an INSERT statement's column, placeholders, and values
// from a struct 'v' that has `db:"columnName"` tags. It skips empty db tags and the "id" field.
// Values are narrowed to the types the sqlite driver stores natively.
func buildInsertQueryAndValues(v any) ([]string, []string, []any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, nil, nil, fmt.Errorf("expected a struct, got %T", v)
	}

	var (
		columns      []string
		placeholders []string
		values       []any
	)

	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		dbTag := rt.Field(i).Tag.Get("db")
		if dbTag == "" || dbTag == "id" {
			continue
		}
		val, err := columnValue(rv.Field(i))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("column %s: %w", dbTag, err)
		}
		columns = append(columns, dbTag)
		placeholders = append(placeholders, "?")
		values = append(values, val)
	}
	return columns, placeholders, values, nil
}

func columnValue(f reflect.Value) (any, error) {
	if t, ok := f.Interface().(time.Time); ok {
		return t.UTC(), nil
	}
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := f.Uint()
		if u > 1<<63-1 {
			return nil, fmt.Errorf("value %d overflows an sqlite integer", u)
		}
		return int64(u), nil
	case reflect.Bool:
		return f.Bool(), nil
	case reflect.String:
		return f.String(), nil
	}
	return nil, fmt.Errorf("unsupported kind %s", f.Kind())
}
