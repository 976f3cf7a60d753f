package prefs

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/stepup-auth/pkg/stepflow"
)

// PostgresPreferenceRepository stores preferences in the user_prefs table.
// The table keeps the historical column-per-slot layout (auth_method_1 ..
// auth_method_5 plus config columns); rows round-trip through the
// method-keyed UserPreference struct via the preference ordinals.
type PostgresPreferenceRepository struct {
	db *pgxpool.Pool
}

// NewPostgresPreferenceRepository creates a Postgres-backed repository.
func NewPostgresPreferenceRepository(db *pgxpool.Pool) *PostgresPreferenceRepository {
	return &PostgresPreferenceRepository{db: db}
}

// GetPreference returns the stored preference record for the user.
func (r *PostgresPreferenceRepository) GetPreference(ctx context.Context, userID string) (UserPreference, error) {
	query := `
		SELECT user_id,
		       auth_method_1, auth_method_2, auth_method_3, auth_method_4, auth_method_5,
		       auth_method_1_config, auth_method_2_config, auth_method_3_config,
		       auth_method_4_config, auth_method_5_config
		FROM user_prefs
		WHERE user_id = $1
	`

	var (
		enabled [5]sql.NullBool
		configs [5]sql.NullString
	)
	pref := NewUserPreference(userID)
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&pref.UserID,
		&enabled[0], &enabled[1], &enabled[2], &enabled[3], &enabled[4],
		&configs[0], &configs[1], &configs[2], &configs[3], &configs[4],
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return UserPreference{}, ErrPreferenceNotFound
		}
		return UserPreference{}, err
	}

	for method, ordinal := range stepflow.PreferenceOrdinals {
		mp := MethodPreference{}
		if enabled[ordinal-1].Valid {
			v := enabled[ordinal-1].Bool
			mp.Enabled = &v
		}
		if configs[ordinal-1].Valid {
			mp.Config = configs[ordinal-1].String
		}
		if mp.Enabled != nil || mp.Config != "" {
			pref.Methods[method] = mp
		}
	}

	return pref, nil
}

// SavePreference upserts the record for pref.UserID.
func (r *PostgresPreferenceRepository) SavePreference(ctx context.Context, pref UserPreference) error {
	query := `
		INSERT INTO user_prefs (user_id,
			auth_method_1, auth_method_2, auth_method_3, auth_method_4, auth_method_5,
			auth_method_1_config, auth_method_2_config, auth_method_3_config,
			auth_method_4_config, auth_method_5_config)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			auth_method_1 = EXCLUDED.auth_method_1,
			auth_method_2 = EXCLUDED.auth_method_2,
			auth_method_3 = EXCLUDED.auth_method_3,
			auth_method_4 = EXCLUDED.auth_method_4,
			auth_method_5 = EXCLUDED.auth_method_5,
			auth_method_1_config = EXCLUDED.auth_method_1_config,
			auth_method_2_config = EXCLUDED.auth_method_2_config,
			auth_method_3_config = EXCLUDED.auth_method_3_config,
			auth_method_4_config = EXCLUDED.auth_method_4_config,
			auth_method_5_config = EXCLUDED.auth_method_5_config
	`

	var (
		enabled [5]*bool
		configs [5]*string
	)
	for method, ordinal := range stepflow.PreferenceOrdinals {
		mp, exists := pref.Methods[method]
		if !exists {
			continue
		}
		enabled[ordinal-1] = mp.Enabled
		if mp.Config != "" {
			config := mp.Config
			configs[ordinal-1] = &config
		}
	}

	_, err := r.db.Exec(ctx, query, pref.UserID,
		enabled[0], enabled[1], enabled[2], enabled[3], enabled[4],
		configs[0], configs[1], configs[2], configs[3], configs[4],
	)
	return err
}
