// Package recommend 是面向调用方的推荐服务：人口属性 → 偏好标签 → 混合推荐链路 → 结果。
package recommend

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pipeline"
	"github.com/rushteam/novelrec/pkg/conv"
	"github.com/rushteam/novelrec/pkg/logging"
	"github.com/rushteam/novelrec/profile"
	"github.com/rushteam/novelrec/rank"
	"github.com/rushteam/novelrec/recall"
	"github.com/rushteam/novelrec/rerank"
)

// DefaultSize 是未指定条数时的默认返回条数。
const DefaultSize = 100

// 结果来源
const (
	SourceContent       = "content"
	SourceCollaborative = "collaborative"
)

// Recommendation 是一条推荐结果，Score 保留两位小数。
type Recommendation struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Author         string              `json:"author"`
	Tags           string              `json:"tags"`
	Platform       string              `json:"platform"`
	PlatformRating core.PlatformRating `json:"platform_rating"`
	Score          float64             `json:"score"`
	MatchScore     int                 `json:"match_score"`
	CFScore        float64             `json:"cf_score"`
	Source         string              `json:"source"`
}

// Request 是一次推荐请求。
type Request struct {
	// RequestID 为空时自动生成
	RequestID string
	// UserID 为空表示匿名新用户
	UserID       string
	Demographics core.Demographics
	// Size 为 nil 时使用服务默认条数；负数按 0 处理
	Size *int
}

// Response 推荐结果及推导出的偏好标签。
type Response struct {
	RequestID     string           `json:"request_id"`
	PreferredTags []string         `json:"preferred_tags"`
	Items         []Recommendation `json:"items"`
}

// Service 只持有只读的目录、模型与链路，可被并发请求共享。
type Service struct {
	catalog   core.Catalog
	predictor core.Predictor
	pipeline  *pipeline.Pipeline
	deriver   *profile.Deriver

	defaultSize int
	timeout     time.Duration
}

// Option 服务配置选项
type Option func(*Service)

// WithPipeline 使用自定义链路（例如由 pipeline YAML 构建）
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(s *Service) { s.pipeline = p }
}

// WithDeriver 替换画像推导器（测试中固定时钟）
func WithDeriver(d *profile.Deriver) Option {
	return func(s *Service) { s.deriver = d }
}

// WithDefaultSize 设置默认返回条数
func WithDefaultSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.defaultSize = n
		}
	}
}

// WithTimeout 设置单次请求的整体超时（默认不设）。超时后返回空结果，不返回错误。
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService 创建推荐服务；predictor 可以为 nil（只做内容推荐）。
func NewService(catalog core.Catalog, predictor core.Predictor, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		predictor:   predictor,
		deriver:     profile.NewDeriver(),
		defaultSize: DefaultSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pipeline == nil {
		s.pipeline = DefaultPipeline(catalog, predictor, &core.DefaultRecommendConfig{})
	}
	if s.pipeline.Observer == nil {
		s.pipeline.Observer = metricsObserver{}
	}
	return s
}

// DefaultPipeline 构建内置的混合推荐链路：
// 内容 + 协同过滤并发召回 → 内容优先合并 → 混合打分与平台评分校准 → TopN。
func DefaultPipeline(catalog core.Catalog, predictor core.Predictor, cfg core.RecommendConfig) *pipeline.Pipeline {
	content := &recall.ContentRecall{Catalog: catalog, TopK: cfg.DefaultContentTopK()}
	cf := &recall.CollaborativeRecall{Catalog: catalog, Predictor: predictor, TopK: cfg.DefaultCollaborativeTopK()}
	return &pipeline.Pipeline{
		Name: "novel.hybrid",
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{content, cf},
				Dedup:   true,
				Timeout: cfg.DefaultTimeout(),
				MergeStrategy: &recall.HybridMergeStrategy{
					ContentSource:       content.Name(),
					CollaborativeSource: cf.Name(),
					ContentQuota:        cfg.DefaultContentQuota(),
					CollaborativeQuota:  cfg.DefaultCollaborativeQuota(),
				},
			},
			rank.NewHybridNode(),
			&rerank.TopNNode{N: cfg.DefaultSize()},
		},
	}
}

// GenerateRecommendations 为一个匿名新用户生成至多 n 条推荐。
//
// n < 0 按 0 处理；n 大于可用候选时返回全部。
// 只有调用方的 ctx 被取消或超时才返回错误，数据问题（目录为空、模型缺失）只会让结果变少。
func (s *Service) GenerateRecommendations(ctx context.Context, demo core.Demographics, n int) ([]Recommendation, error) {
	resp, err := s.Recommend(ctx, Request{Demographics: demo, Size: &n})
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Recommend 执行一次完整的推荐请求。
func (s *Service) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	defer func() { RequestDuration.Observe(time.Since(start).Seconds()) }()

	size := s.defaultSize
	if req.Size != nil {
		size = max(*req.Size, 0)
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = logging.NewRequestID()
	}
	ctx = logging.ContextWithRequestID(ctx, requestID)
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rctx := &core.RecommendContext{
		RequestID: requestID,
		UserID:    req.UserID,
		Scene:     "novel",
		Params:    map[string]any{core.ParamSize: size},
	}
	user := s.deriver.Apply(rctx, req.Demographics)
	resp := &Response{
		RequestID:     requestID,
		PreferredTags: user.PreferredTags,
		Items:         []Recommendation{},
	}

	if size == 0 || s.catalog == nil || s.catalog.Len() == 0 {
		RequestsTotal.WithLabelValues("empty").Inc()
		ResultSize.Observe(0)
		return resp, nil
	}

	items, err := s.pipeline.Run(runCtx, rctx, nil)
	if err != nil {
		// 只有调用方取消才向上返回；服务自身的超时与链路错误都降级为空结果
		if ctxErr := ctx.Err(); ctxErr != nil {
			RequestsTotal.WithLabelValues("cancelled").Inc()
			return nil, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			logging.Ctx(ctx).Warn().Dur("timeout", s.timeout).Msg("recommend deadline exceeded, returning empty result")
		} else {
			logging.Ctx(ctx).Error().Err(err).Msg("recommend pipeline failed, returning empty result")
		}
		RequestsTotal.WithLabelValues("degraded").Inc()
		ResultSize.Observe(0)
		return resp, nil
	}
	s.recordRecallCounts(rctx)

	if len(items) > size {
		items = items[:size]
	}
	for _, it := range items {
		if rec, ok := toRecommendation(it); ok {
			resp.Items = append(resp.Items, rec)
		}
	}

	outcome := "ok"
	if len(resp.Items) == 0 {
		outcome = "empty"
	}
	RequestsTotal.WithLabelValues(outcome).Inc()
	ResultSize.Observe(float64(len(resp.Items)))
	logging.Ctx(ctx).Debug().
		Strs("preferred_tags", user.PreferredTags).
		Int("size", size).
		Int("returned", len(resp.Items)).
		Msg("recommendations generated")
	return resp, nil
}

func (s *Service) recordRecallCounts(rctx *core.RecommendContext) {
	for key, lbl := range rctx.Labels {
		source, ok := strings.CutPrefix(key, "recall_count.")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(lbl.Value); err == nil {
			CandidatesTotal.WithLabelValues(source).Add(float64(n))
		}
	}
}

func toRecommendation(it *core.Item) (Recommendation, bool) {
	if it == nil {
		return Recommendation{}, false
	}
	novel, ok := core.NovelOf(it)
	if !ok {
		return Recommendation{}, false
	}
	source := SourceCollaborative
	if lbl, ok := it.Labels["merge_slot"]; ok && lbl.Value != "" {
		source = lbl.Value
	} else if it.MatchScore() > 0 {
		source = SourceContent
	}
	return Recommendation{
		ID:             novel.ID,
		Title:          novel.Title,
		Author:         novel.Author,
		Tags:           novel.Tags,
		Platform:       novel.Platform,
		PlatformRating: novel.Rating,
		Score:          conv.Round(it.Score, 2),
		MatchScore:     it.MatchScore(),
		CFScore:        it.CFScore(),
		Source:         source,
	}, true
}
