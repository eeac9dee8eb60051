package main

// ubuntu 后台执行的方法 nohup ./foodgram_back > foodgram_back.log 2>&1 &
//
//	foodgram_back                          启动 HTTP 服务
//	foodgram_back loaddata [ingredients]   写入初始标签，可选导入食材 JSON
//	foodgram_back createadmin <email>      把已注册用户设为管理员
import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/studieren/foodgram_back/api"
	"github.com/studieren/foodgram_back/auth"
	"github.com/studieren/foodgram_back/config"
	"github.com/studieren/foodgram_back/database"
	"github.com/studieren/foodgram_back/gormtool"
	"github.com/studieren/foodgram_back/logging"
	"github.com/studieren/foodgram_back/media"
	"github.com/studieren/foodgram_back/report"
	"github.com/studieren/foodgram_back/service"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("加载配置失败")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	db, err := database.Open(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("连接数据库失败")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cruder, closeRedis := newCRUDTool(ctx, cfg, db)
	defer closeRedis()

	if len(os.Args) > 1 {
		if err := runCommand(ctx, cruder, os.Args[1:]); err != nil {
			logging.Fatal().Err(err).Str("command", os.Args[1]).Msg("命令执行失败")
		}
		return
	}

	if err := serve(ctx, cfg, cruder); err != nil {
		logging.Fatal().Err(err).Msg("服务异常退出")
	}
}

// newCRUDTool 按配置连接 Redis；连不上时照常运行，由断路器跳过缓存
func newCRUDTool(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gormtool.CRUDTool, func()) {
	if !cfg.Redis.Enabled {
		return gormtool.NewCRUDTool(db, gormtool.NewCache(nil, cfg.Redis.CacheTTL), nil), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logging.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis 连接失败")
	}
	cancel()

	return gormtool.NewCRUDTool(db, gormtool.NewCache(rdb, cfg.Redis.CacheTTL), nil), func() { _ = rdb.Close() }
}

func runCommand(ctx context.Context, cruder *gormtool.CRUDTool, args []string) error {
	switch args[0] {
	case "loaddata":
		n, err := database.SeedTags(ctx, cruder)
		if err != nil {
			return err
		}
		logging.Info().Int64("created", n).Msg("标签已写入")
		if len(args) > 1 {
			n, err := database.ImportIngredients(ctx, cruder, args[1])
			if err != nil {
				return err
			}
			logging.Info().Int64("created", n).Str("file", args[1]).Msg("食材已导入")
		}
		return nil
	case "createadmin":
		if len(args) < 2 {
			return errors.New("usage: createadmin <email>")
		}
		if err := database.PromoteAdmin(ctx, cruder.DB, args[1]); err != nil {
			return err
		}
		logging.Info().Str("email", args[1]).Msg("已设为管理员")
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context, cfg *config.Config, cruder *gormtool.CRUDTool) error {
	gin.SetMode(cfg.Server.Mode)

	db := cruder.DB
	tokens := auth.NewTokenStore(db)
	images := media.NewStore(cfg.Media.Root, cfg.Media.URL, cfg.Media.MaxImageSide)
	svc := service.New(cruder, tokens, images, cfg.Security.BcryptCost)
	reports := report.NewGenerator(db, cfg.Report.FontPath)

	var limiter *auth.RateLimiter
	if cfg.Security.LoginRateEnabled {
		limiter = auth.NewRateLimiter(cfg.Security.LoginRateLimit, cfg.Security.LoginRateWindow)
		defer limiter.Stop()
	}

	h := api.NewHandler(svc, tokens, reports, cruder, cfg.API.DefaultPageSize, cfg.API.MaxPageSize)
	router := api.NewRouter(h, api.RouterOptions{
		CORSOrigins:  cfg.Security.CORSOrigins,
		MediaRoot:    cfg.Media.Root,
		MediaURL:     cfg.Media.URL,
		LoginLimiter: limiter,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Str("db", cfg.Database.Driver).Bool("redis", cruder.Cache.Enabled()).Msg("服务启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
