package catalog

import (
	"context"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/feast"
	"github.com/rushteam/novelrec/pkg/conv"
	"github.com/rushteam/novelrec/pkg/logging"
)

// RatingEnricher 从 Feast 在线特征刷新目录中的平台评分。
//
// 任一批次失败只记录日志，该批次保留原评分；返回值永远是完整目录。
type RatingEnricher struct {
	Client feast.Client

	// Feature 评分特征名，默认 "novel_stats:platform_rating"
	Feature string

	// EntityKey 实体列名，默认 "novel_id"
	EntityKey string

	// BatchSize 每批请求的实体数，默认 200
	BatchSize int
}

const (
	defaultRatingFeature = "novel_stats:platform_rating"
	defaultEntityKey     = "novel_id"
	defaultBatchSize     = 200
)

// Enrich 返回替换了评分的新目录，原目录不变。
func (e *RatingEnricher) Enrich(ctx context.Context, m *Memory) *Memory {
	if e == nil || e.Client == nil || m.Len() == 0 {
		return m
	}
	feature := e.Feature
	if feature == "" {
		feature = defaultRatingFeature
	}
	entityKey := e.EntityKey
	if entityKey == "" {
		entityKey = defaultEntityKey
	}
	batch := e.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	ids := m.IDs()
	ratings := make(map[string]core.PlatformRating, len(ids))
	for start := 0; start < len(ids); start += batch {
		end := min(start+batch, len(ids))
		rows := make([]map[string]any, 0, end-start)
		for _, id := range ids[start:end] {
			rows = append(rows, map[string]any{entityKey: id})
		}

		resp, err := e.Client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
			Features:   []string{feature},
			EntityRows: rows,
		})
		if err != nil {
			logging.Warn().Err(err).Int("batch_start", start).Msg("catalog: feast rating fetch failed, keep original ratings")
			continue
		}
		for i, fv := range resp.FeatureVectors {
			if i >= len(rows) {
				break
			}
			raw, ok := fv.Values[feature]
			if !ok {
				continue
			}
			v, ok := conv.ToFloat64(raw)
			if !ok {
				continue
			}
			id := ids[start+i]
			ratings[id] = core.RatingOf(v)
		}
	}
	logging.Info().Int("novels", len(ids)).Int("refreshed", len(ratings)).Msg("catalog: platform ratings enriched")
	return m.WithRatings(ratings)
}
