package db

import (
	"context"
	"fmt"

	"github.com/jonathan/cv-search/internal/search"
)

// GateCandidates returns candidates carrying any of the given role tags and
// any of the given seniority tags, ordered by id.
func (db *DB) GateCandidates(ctx context.Context, roles, seniorities []string) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT c.candidate_id
		 FROM candidates c
		 WHERE EXISTS (
			SELECT 1 FROM candidate_tags t
			WHERE t.candidate_id = c.candidate_id
			  AND t.tag_type = 'role'
			  AND t.tag_key = ANY($1)
		 )
		 AND EXISTS (
			SELECT 1 FROM candidate_tags t
			WHERE t.candidate_id = c.candidate_id
			  AND t.tag_type = 'seniority'
			  AND t.tag_key = ANY($2)
		 )
		 ORDER BY c.candidate_id`,
		roles, seniorities,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to gate candidates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TagFrequencies counts, per tag, how many of the given candidates carry it.
func (db *DB) TagFrequencies(ctx context.Context, candidateIDs []string, tagType string, tags []string) (map[string]int, error) {
	freqs := make(map[string]int, len(tags))
	if len(candidateIDs) == 0 || len(tags) == 0 {
		return freqs, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT tag_key, COUNT(DISTINCT candidate_id)
		 FROM candidate_tags
		 WHERE tag_type = $1
		   AND tag_key = ANY($2)
		   AND candidate_id = ANY($3)
		 GROUP BY tag_key`,
		tagType, tags, candidateIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count tag frequencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag string
		var count int
		if err := rows.Scan(&tag, &count); err != nil {
			return nil, fmt.Errorf("failed to scan tag frequency: %w", err)
		}
		freqs[tag] = count
	}
	return freqs, rows.Err()
}

// TagHits returns, per candidate, the subset of the given tags it carries.
func (db *DB) TagHits(ctx context.Context, candidateIDs []string, tagType string, tags []string) (map[string]map[string]bool, error) {
	hits := make(map[string]map[string]bool, len(candidateIDs))
	if len(candidateIDs) == 0 || len(tags) == 0 {
		return hits, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT candidate_id, tag_key
		 FROM candidate_tags
		 WHERE tag_type = $1
		   AND tag_key = ANY($2)
		   AND candidate_id = ANY($3)`,
		tagType, tags, candidateIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tag hits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag hit: %w", err)
		}
		if hits[id] == nil {
			hits[id] = make(map[string]bool)
		}
		hits[id][tag] = true
	}
	return hits, rows.Err()
}

// TextRanks scores each candidate document against the query with ts_rank.
// Candidates whose document does not match the query are absent from the map.
func (db *DB) TextRanks(ctx context.Context, candidateIDs []string, query string) (map[string]float64, error) {
	ranks := make(map[string]float64, len(candidateIDs))
	if len(candidateIDs) == 0 || query == "" {
		return ranks, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT candidate_id, ts_rank(doc_tsv, plainto_tsquery('english', $1))
		 FROM candidate_docs
		 WHERE candidate_id = ANY($2)
		   AND doc_tsv @@ plainto_tsquery('english', $1)`,
		query, candidateIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rank documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan document rank: %w", err)
		}
		ranks[id] = rank
	}
	return ranks, rows.Err()
}

// CandidateDocs returns the searchable documents for the given ids.
func (db *DB) CandidateDocs(ctx context.Context, candidateIDs []string) (map[string]search.CandidateDoc, error) {
	docs := make(map[string]search.CandidateDoc, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return docs, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT c.candidate_id, c.seniority, c.last_updated::TEXT,
		        COALESCE(d.summary_text, ''), COALESCE(d.experience_text, ''), COALESCE(d.tags_text, '')
		 FROM candidates c
		 LEFT JOIN candidate_docs d ON d.candidate_id = c.candidate_id
		 WHERE c.candidate_id = ANY($1)`,
		candidateIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate docs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc search.CandidateDoc
		if err := rows.Scan(&doc.CandidateID, &doc.Seniority, &doc.LastUpdated,
			&doc.SummaryText, &doc.ExperienceText, &doc.TagsText); err != nil {
			return nil, fmt.Errorf("failed to scan candidate doc: %w", err)
		}
		docs[doc.CandidateID] = doc
	}
	return docs, rows.Err()
}
