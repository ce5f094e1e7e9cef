package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/wonny/winners/internal/api"
	"github.com/wonny/winners/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                              - Health check
  GET  /api/screen                          - 스크리닝 (쿼리로 조건 지정)
  GET  /api/screen/export.csv               - 스크리닝 결과 CSV
  GET  /api/rankings                        - RS 백분위 랭킹
  POST /api/returns/recompute               - 로그 수익률 재계산 (full|incremental)
  GET  /api/instruments/{ticker}/ratios     - 재무 비율
  GET  /api/instruments/{ticker}/cagr       - 3년 매출 CAGR
  GET  /api/data/coverage                   - 데이터 커버리지

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Winners API Server ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	// Handlers
	h := api.Handlers{
		Health:       handlers.NewHealthHandler(a.db, a.redis, a.log),
		Screen:       handlers.NewScreenHandler(a.screener, a.profile.Screen, a.log),
		Returns:      handlers.NewReturnsHandler(a.engine, a.ranker, a.cfg.Engine.ReturnsWindowDays, a.profile.Screen.LookbackDays, a.log),
		Fundamentals: handlers.NewFundamentalsHandler(a.fundamentals, a.ratios, a.cagr, a.log),
		Data:         handlers.NewDataHandler(a.gate, a.log),
	}

	limiter := rate.NewLimiter(rate.Limit(a.cfg.API.RateLimit), a.cfg.API.RateBurst)
	server := api.New(a.cfg, a.log, api.NewRouter(h, limiter, a.log))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s (profile: %s, redis: %v)\n",
		a.cfg.Port, a.profile.Meta.ProfileID, a.redis.Enabled())
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
