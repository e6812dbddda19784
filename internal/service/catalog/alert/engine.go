// internal/service/catalog/alert/engine.go
package alert

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"emporium/internal/service/catalog/domain"
)

// Engine 用 CEL 表达式对商品做低库存(或任意条件)告警判定。
// 规则变量: id(uint), name(string), stock(int), price(double)。
// 这是对第三方表达式引擎的一层适配，规则在启动时编译一次。
type Engine struct {
	rules []compiledRule
}

type compiledRule struct {
	expr string
	prg  cel.Program
}

// NewEngine 编译全部规则。任何一条规则非法都直接失败，
// 宁可启动失败也不要带着坏规则静默运行。
func NewEngine(rules []string) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.UintType),
		cel.Variable("name", cel.StringType),
		cel.Variable("stock", cel.IntType),
		cel.Variable("price", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, expr := range rules {
		ast, iss := env.Compile(expr)
		if iss.Err() != nil {
			return nil, fmt.Errorf("compile alert rule %q: %w", expr, iss.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("alert rule %q must evaluate to bool, got %s", expr, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build program for rule %q: %w", expr, err)
		}
		compiled = append(compiled, compiledRule{expr: expr, prg: prg})
	}
	return &Engine{rules: compiled}, nil
}

// Match 返回命中的规则表达式，任一规则为 true 即命中。
func (e *Engine) Match(p *domain.Product) ([]string, error) {
	price, _ := p.Price.Float64()
	vars := map[string]interface{}{
		"id":    p.ID,
		"name":  p.Name,
		"stock": p.StockQuantity,
		"price": price,
	}

	var matched []string
	for _, r := range e.rules {
		out, _, err := r.prg.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("evaluate rule %q: %w", r.expr, err)
		}
		if ok, _ := out.Value().(bool); ok {
			matched = append(matched, r.expr)
		}
	}
	return matched, nil
}

// StockAlert 一条告警: 商品加上命中的规则。
type StockAlert struct {
	ProductID uint64   `json:"productId"`
	Name      string   `json:"name"`
	Stock     int      `json:"stock"`
	Rules     []string `json:"rules"`
}

// Service 扫描全量商品并产出告警列表。
type Service struct {
	products domain.ProductRepository
	engine   *Engine
}

func NewService(products domain.ProductRepository, engine *Engine) *Service {
	return &Service{products: products, engine: engine}
}

// Scan 纯查询，没有副作用。
func (s *Service) Scan(ctx context.Context) ([]StockAlert, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]StockAlert, 0)
	for _, p := range products {
		rules, err := s.engine.Match(p)
		if err != nil {
			return nil, err
		}
		if len(rules) > 0 {
			alerts = append(alerts, StockAlert{
				ProductID: p.ID,
				Name:      p.Name,
				Stock:     p.StockQuantity,
				Rules:     rules,
			})
		}
	}
	return alerts, nil
}
