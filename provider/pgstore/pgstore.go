// Package pgstore implements provider.RouteStore against a Postgres
// reqrep_routes table via pgx/v5, for deployments that configure their
// transform routes through a shared database rather than in-process.
package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reqrep/transform/plan"
	"github.com/reqrep/transform/provider"
)

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Store reads route rows from a reqrep_routes table shaped:
//
//	method          text
//	path_pattern    text
//	side            text
//	"order"         int
//	transform_name  text
//	params          jsonb
//	timeout_ms      int
//	failure_mode    text (nullable)
//	allow_parallel  boolean
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an already-connected pgxpool.Pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const selectRoutesSQL = `
SELECT method, path_pattern, side, "order", transform_name, params,
       timeout_ms, failure_mode, allow_parallel
FROM reqrep_routes
ORDER BY "order"
`

func (s *Store) Entries(ctx context.Context) ([]provider.RouteEntry, error) {
	rows, err := s.pool.Query(ctx, selectRoutesSQL)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query routes: %w", err)
	}
	defer rows.Close()

	var out []provider.RouteEntry
	for rows.Next() {
		var (
			method, pathPattern, side, transformName string
			order, timeoutMs                         int
			paramsJSON                                []byte
			failureMode                                *string
			allowParallel                               bool
		)
		if err := rows.Scan(&method, &pathPattern, &side, &order, &transformName,
			&paramsJSON, &timeoutMs, &failureMode, &allowParallel); err != nil {
			return nil, fmt.Errorf("pgstore: scan route row: %w", err)
		}

		params := map[string]string{}
		if len(paramsJSON) > 0 {
			if err := json.Unmarshal(paramsJSON, &params); err != nil {
				return nil, fmt.Errorf("pgstore: decode params: %w", err)
			}
		}

		entry := provider.RouteEntry{
			Method:        method,
			PathPattern:   pathPattern,
			Side:          side,
			Order:         order,
			TransformName: transformName,
			Params:        params,
			Timeout:       msToDuration(timeoutMs),
			AllowParallel: allowParallel,
		}
		if failureMode != nil {
			mode, err := plan.ParseFailureMode(*failureMode)
			if err != nil {
				return nil, fmt.Errorf("pgstore: row %s %s: %w", method, pathPattern, err)
			}
			entry.FailureModeSet = true
			entry.FailureMode = mode
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: iterate routes: %w", err)
	}
	return out, nil
}
