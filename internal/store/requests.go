// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import "fmt"

// EnqueueRequest appends a deferred mutating operation to request_queue.
func (s *Store) EnqueueRequest(typ string, payloadJSON string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO request_queue (type, payload) VALUES (?, ?)`, typ, payloadJSON)
	if err != nil {
		return 0, fmt.Errorf("enqueueing request: %w", err)
	}
	return res.LastInsertId()
}

// DequeueRequest deletes a successfully executed request row.
func (s *Store) DequeueRequest(seq int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM request_queue WHERE seq = ?`, seq)
	if err != nil {
		return fmt.Errorf("dequeueing request %d: %w", seq, err)
	}
	return nil
}

// MarkRequestAttempt increments the attempt counter of a request that
// failed and is being retried.
func (s *Store) MarkRequestAttempt(seq int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE request_queue SET attempts = attempts + 1 WHERE seq = ?`, seq)
	if err != nil {
		return fmt.Errorf("marking attempt on request %d: %w", seq, err)
	}
	return nil
}

// ListRequests returns every pending request in FIFO (seq) order.
func (s *Store) ListRequests() ([]RequestRow, error) {
	rows, err := s.db.Query(`SELECT seq, type, payload, attempts FROM request_queue ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var out []RequestRow
	for rows.Next() {
		var r RequestRow
		if err := rows.Scan(&r.Seq, &r.Type, &r.Payload, &r.Attempts); err != nil {
			return nil, fmt.Errorf("scanning request row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
