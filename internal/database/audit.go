/**
 * Copyright 2026-present Soyaya, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/soyaya/boardling-sub002/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// appendAuditTx writes one audit row inside the caller's transaction so the
// trail commits or rolls back with the change it describes.
func (s *Service) appendAuditTx(ctx context.Context, tx *sql.Tx, entityType, entityId, action, detail string) error {
	if _, err := tx.ExecContext(ctx, queryInsertAuditEntry,
		uuid.New().String(), entityType, entityId, action, detail, time.Now().UTC()); err != nil {
		return fmt.Errorf("unable to append audit entry: %w", classifyErr(err))
	}
	return nil
}

// ListAuditTrail returns every recorded action for one entity, oldest first.
func (s *Service) ListAuditTrail(ctx context.Context, entityId string) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryListAuditTrail, entityId)
	if err != nil {
		return nil, fmt.Errorf("unable to query audit trail: %w", classifyErr(err))
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.Id, &e.EntityType, &e.EntityId, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return entries, nil
}
