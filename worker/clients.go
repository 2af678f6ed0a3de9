package worker

import (
	"context"
	"time"

	"github.com/kpango/glg"

	"svgstudio/codegen"
	"svgstudio/format"
	"svgstudio/optimizer"
	"svgstudio/svgdoc"
)

type compressRequest struct {
	SVG    string           `json:"svg"`
	Config optimizer.Config `json:"config"`
}

// OptimizerClient runs the optimizer on its own pool.
type OptimizerClient struct {
	pool  *Pool[compressRequest, string]
	cache *Cache[string]
}

func NewOptimizerClient(workers, cacheSize int, cacheAge time.Duration) *OptimizerClient {
	return &OptimizerClient{
		pool: NewPool("optimizer", workers, func(r compressRequest) (string, error) {
			return optimizer.Optimize(r.SVG, r.Config)
		}),
		cache: NewCache[string](cacheSize, cacheAge),
	}
}

// Compress optimizes svg with cfg, answering from the cache when the same
// input was seen recently.
func (c *OptimizerClient) Compress(ctx context.Context, svg string, cfg optimizer.Config) (string, error) {
	req := compressRequest{SVG: svg, Config: cfg}
	return cached(ctx, c.cache, c.pool, req)
}

func (c *OptimizerClient) ClearCache()       { c.cache.Clear() }
func (c *OptimizerClient) CacheStats() Stats { return c.cache.Stats() }
func (c *OptimizerClient) Pending() int      { return c.pool.Pending() }

// Terminate stops the pool and drops the cache.
func (c *OptimizerClient) Terminate() {
	c.pool.Terminate()
	c.cache.Clear()
}

type formatRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

// FormatterClient prettifies code and markup on its own pool.
type FormatterClient struct {
	pool  *Pool[formatRequest, string]
	cache *Cache[string]
}

func NewFormatterClient(workers, cacheSize int, cacheAge time.Duration) *FormatterClient {
	return &FormatterClient{
		pool: NewPool("formatter", workers, func(r formatRequest) (string, error) {
			return format.Format(r.Content, r.Language)
		}),
		cache: NewCache[string](cacheSize, cacheAge),
	}
}

func (c *FormatterClient) Format(ctx context.Context, content, language string) (string, error) {
	return cached(ctx, c.cache, c.pool, formatRequest{Content: content, Language: language})
}

func (c *FormatterClient) ClearCache()       { c.cache.Clear() }
func (c *FormatterClient) CacheStats() Stats { return c.cache.Stats() }

func (c *FormatterClient) Terminate() {
	c.pool.Terminate()
	c.cache.Clear()
}

type generateRequest struct {
	Target    codegen.Target `json:"type"`
	Data      svgdoc.Data    `json:"svgData"`
	SVGString string         `json:"svgString"`
}

// CodegenClient renders component source on its own pool.
type CodegenClient struct {
	pool  *Pool[generateRequest, string]
	cache *Cache[string]
}

func NewCodegenClient(workers, cacheSize int, cacheAge time.Duration) *CodegenClient {
	return &CodegenClient{
		pool: NewPool("codegen", workers, func(r generateRequest) (string, error) {
			return codegen.Generate(r.Target, r.Data, r.SVGString)
		}),
		cache: NewCache[string](cacheSize, cacheAge),
	}
}

func (c *CodegenClient) Generate(ctx context.Context, target codegen.Target, data svgdoc.Data, svgString string) (string, error) {
	return cached(ctx, c.cache, c.pool, generateRequest{Target: target, Data: data, SVGString: svgString})
}

func (c *CodegenClient) ClearCache()       { c.cache.Clear() }
func (c *CodegenClient) CacheStats() Stats { return c.cache.Stats() }

func (c *CodegenClient) Terminate() {
	c.pool.Terminate()
	c.cache.Clear()
}

func cached[Req any](ctx context.Context, c *Cache[string], p *Pool[Req, string], req Req) (string, error) {
	key, err := Key(req)
	if err != nil {
		return "", err
	}
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	out, err := p.Execute(ctx, req)
	if err != nil {
		return "", err
	}
	c.Set(key, out)
	return out, nil
}

// Clients bundles one client per task type.
type Clients struct {
	Optimizer *OptimizerClient
	Formatter *FormatterClient
	Codegen   *CodegenClient
}

func NewClients(workers, cacheSize int, cacheAge time.Duration) *Clients {
	return &Clients{
		Optimizer: NewOptimizerClient(workers, cacheSize, cacheAge),
		Formatter: NewFormatterClient(workers, cacheSize, cacheAge),
		Codegen:   NewCodegenClient(workers, cacheSize, cacheAge),
	}
}

// CacheStats reports every cache by task name.
func (c *Clients) CacheStats() map[string]Stats {
	return map[string]Stats{
		"optimizer": c.Optimizer.CacheStats(),
		"formatter": c.Formatter.CacheStats(),
		"codegen":   c.Codegen.CacheStats(),
	}
}

func (c *Clients) ClearCaches() {
	c.Optimizer.ClearCache()
	c.Formatter.ClearCache()
	c.Codegen.ClearCache()
}

func (c *Clients) Terminate() {
	c.Optimizer.Terminate()
	c.Formatter.Terminate()
	c.Codegen.Terminate()
	glg.Info("worker pools terminated")
}
