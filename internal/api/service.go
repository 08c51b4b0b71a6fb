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

package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyaya/boardling-sub002/internal/store"
)

// SettlementService fronts the storage layer for the HTTP handlers. It adds
// operational logging and metrics around the money-moving operations and
// passes reads straight through.
type SettlementService struct {
	db store.SettlementStore
}

func NewSettlementService(db store.SettlementStore) *SettlementService {
	return &SettlementService{
		db: db,
	}
}

// Store exposes the underlying storage for read-only handlers.
func (s *SettlementService) Store() store.SettlementStore {
	return s.db
}

func (s *SettlementService) HealthCheck(ctx context.Context) error {
	// Any round trip proves the database answers; a missing probe user is
	// a healthy response.
	_, err := s.db.GetUserByEmail(ctx, "healthcheck@boardling.dev")
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
