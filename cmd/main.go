package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fyerfyer/pdf-replacer/api"
	"github.com/fyerfyer/pdf-replacer/api/handler"
	"github.com/fyerfyer/pdf-replacer/api/middleware"
	appconfig "github.com/fyerfyer/pdf-replacer/config"
	"github.com/fyerfyer/pdf-replacer/internal/cache"
	"github.com/fyerfyer/pdf-replacer/internal/database"
	"github.com/fyerfyer/pdf-replacer/internal/engine"
	"github.com/fyerfyer/pdf-replacer/internal/mapping"
	"github.com/fyerfyer/pdf-replacer/internal/pdfdoc"
	"github.com/fyerfyer/pdf-replacer/internal/repository"
	"github.com/fyerfyer/pdf-replacer/internal/services"
	"github.com/fyerfyer/pdf-replacer/pkg/storage"
	"github.com/fyerfyer/pdf-replacer/pkg/taskqueue"
)

// 命令行选项
type options struct {
	ConfigFile  string // 配置文件路径
	Serve       bool   // 以HTTP服务模式运行
	Worker      bool   // 以队列worker模式运行
	Port        int    // 服务端口
	Mode        string // 运行模式 (debug/release)
	LogLevel    string // 日志级别
	LogDir      string // 日志文件目录

	// 批处理模式选项
	MappingPath  string // 映射表CSV路径
	OutputFile   string // 单文档显式输出路径
	OutputDir    string // 输出目录
	OutputSuffix string // 输出文件名后缀
	Concurrency  int    // 并发worker数量
	ReportPath   string // 报告输出路径
	ReportFormat string // 报告格式
}

func main() {
	// 加载.env文件（如果存在）
	_ = godotenv.Load()

	opts := parseFlags()

	cfg, err := appconfig.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyDefaults(&opts, cfg)

	logger := setupLogger(opts, cfg)

	switch {
	case opts.Serve:
		runServer(opts, cfg, logger)
	case opts.Worker:
		runWorker(opts, cfg, logger)
	default:
		inputs := flag.Args()
		if opts.MappingPath == "" || len(inputs) == 0 {
			fmt.Fprintln(os.Stderr, "Usage:")
			fmt.Fprintln(os.Stderr, "  pdf-replacer -mapping table.csv [options] input1.pdf [input2.pdf ...]")
			fmt.Fprintln(os.Stderr, "  pdf-replacer -serve [options]")
			fmt.Fprintln(os.Stderr, "  pdf-replacer -worker [options]")
			flag.PrintDefaults()
			os.Exit(2)
		}
		runBatch(opts, cfg, logger, inputs)
	}
}

// parseFlags 解析命令行参数
func parseFlags() options {
	opts := options{}

	flag.StringVar(&opts.ConfigFile, "config", "", "Path to config file")
	flag.BoolVar(&opts.Serve, "serve", false, "Run as HTTP server")
	flag.BoolVar(&opts.Worker, "worker", false, "Run as task queue worker")
	flag.IntVar(&opts.Port, "port", 0, "Server port (overrides config)")
	flag.StringVar(&opts.Mode, "mode", "release", "Run mode (debug/release)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug/info/warn/error)")
	flag.StringVar(&opts.LogDir, "log-dir", "", "Log file directory (overrides config)")

	flag.StringVar(&opts.MappingPath, "mapping", "", "Mapping table CSV path")
	flag.StringVar(&opts.OutputFile, "o", "", "Output file path (single input only)")
	flag.StringVar(&opts.OutputDir, "output", "", "Output directory (overrides config)")
	flag.StringVar(&opts.OutputSuffix, "suffix", "", "Output filename suffix (overrides config)")
	flag.IntVar(&opts.Concurrency, "concurrency", 0, "Number of concurrent workers (overrides config)")
	flag.StringVar(&opts.ReportPath, "report", "", "Write a batch report to this path")
	flag.StringVar(&opts.ReportFormat, "report-format", "", "Report format (markdown/html)")

	flag.Parse()
	return opts
}

// applyDefaults 用配置文件的值补全未在命令行指定的选项
func applyDefaults(opts *options, cfg *appconfig.Config) {
	if opts.Port == 0 {
		opts.Port = cfg.Server.Port
	}
	if opts.LogLevel == "" {
		opts.LogLevel = cfg.Log.Level
	}
	if opts.LogDir == "" {
		opts.LogDir = cfg.Log.Dir
	}
	if opts.OutputDir == "" {
		opts.OutputDir = cfg.Replace.OutputDir
	}
	if opts.OutputSuffix == "" {
		opts.OutputSuffix = cfg.Replace.OutputSuffix
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = cfg.Replace.Concurrency
	}
	if opts.ReportFormat == "" {
		opts.ReportFormat = cfg.Replace.ReportFormat
	}
}

// setupLogger 设置日志系统
// 指定日志目录时同时输出到滚动日志文件和标准输出
func setupLogger(opts options, cfg *appconfig.Config) *logrus.Logger {
	logger := middleware.GetLogger()

	switch opts.LogLevel {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if opts.LogDir != "" {
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(opts.LogDir, "pdf-replacer.log"),
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return logger
}

// setupStorage 设置文件存储服务
func setupStorage(cfg *appconfig.Config) (storage.Storage, error) {
	if cfg.Storage.Type == "minio" {
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
	}

	if err := os.MkdirAll(cfg.Storage.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}
	return storage.NewLocalStorage(storage.LocalConfig{
		Path: cfg.Storage.Path,
	})
}

// setupCache 设置结果缓存
func setupCache(cfg *appconfig.Config) (cache.Cache, error) {
	if !cfg.Cache.Enable {
		return nil, nil
	}

	cacheConfig := cache.Config{
		Type:            cfg.Cache.Type,
		DefaultTTL:      time.Duration(cfg.Cache.TTL) * time.Second,
		CleanupInterval: 10 * time.Minute,
	}
	if cfg.Cache.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Cache.Address
		cacheConfig.RedisPassword = cfg.Cache.Password
		cacheConfig.RedisDB = cfg.Cache.DB
	}

	return cache.NewCache(cacheConfig)
}

// setupDatabase 设置数据库
func setupDatabase(cfg *appconfig.Config, logger *logrus.Logger) error {
	dbConfig := &database.Config{
		Type: cfg.Database.Type,
		DSN:  cfg.Database.DSN,
	}
	return database.Setup(dbConfig, logger)
}

// setupTaskQueue 设置任务队列
func setupTaskQueue(cfg *appconfig.Config, logger *logrus.Logger) (taskqueue.Queue, error) {
	queueConfig := &taskqueue.Config{
		RedisAddr:     cfg.Queue.RedisAddr,
		RedisPassword: cfg.Queue.RedisPassword,
		RedisDB:       cfg.Queue.RedisDB,
		Concurrency:   cfg.Queue.Concurrency,
		RetryLimit:    cfg.Queue.RetryLimit,
		RetryDelay:    time.Duration(cfg.Queue.RetryDelay) * time.Second,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	}

	logger.WithFields(logrus.Fields{
		"type":        cfg.Queue.Type,
		"redis_addr":  cfg.Queue.RedisAddr,
		"concurrency": cfg.Queue.Concurrency,
	}).Info("Setting up task queue")

	return taskqueue.NewQueue(cfg.Queue.Type, queueConfig)
}

// runBatch 以命令行批处理模式运行
func runBatch(opts options, cfg *appconfig.Config, logger *logrus.Logger, inputs []string) {
	if opts.OutputFile != "" && len(inputs) != 1 {
		logger.Fatalf("-o expects exactly one input file, got %d", len(inputs))
	}

	table, warnings, err := mapping.BuildFromFile(opts.MappingPath)
	if err != nil {
		logger.Fatalf("Failed to load mapping table: %v", err)
	}

	for _, w := range warnings {
		logger.WithField("mapping", opts.MappingPath).Warnf("Mapping table warning: %s", w.String())
	}

	logger.WithFields(logrus.Fields{
		"rules":     table.Len(),
		"documents": len(inputs),
	}).Info("Starting batch replacement")

	cacheService, err := setupCache(cfg)
	if err != nil {
		logger.Warnf("Failed to initialize cache, continuing without it: %v", err)
		cacheService = nil
	}

	svcOpts := []services.ReplaceOption{services.WithLogger(logger)}
	if cacheService != nil {
		svcOpts = append(svcOpts, services.WithCache(cacheService))
		defer cacheService.Close()
	}

	svc := services.NewReplaceService(
		engine.New(table),
		pdfdoc.NewReader(logger),
		pdfdoc.NewWriter(logger),
		svcOpts...,
	)

	batchOpts := []services.BatchOption{
		services.WithOutputDir(opts.OutputDir),
		services.WithOutputSuffix(opts.OutputSuffix),
		services.WithConcurrency(opts.Concurrency),
		services.WithBatchLogger(logger),
	}
	if opts.OutputFile != "" {
		batchOpts = append(batchOpts, services.WithOutputPath(opts.OutputFile))
	}
	coordinator := services.NewBatchCoordinator(svc, batchOpts...)

	// Ctrl+C时取消尚未开始的文档，已开始的文档完整处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary := coordinator.Run(ctx, inputs)

	fmt.Printf("Documents: %d, succeeded: %d, failed: %d, canceled: %d, replacements: %d (%s)\n",
		summary.Total, summary.Succeeded, summary.Failed, summary.Canceled,
		summary.Replacements, summary.Elapsed.Round(time.Millisecond))

	for _, o := range summary.Outcomes {
		if o.Err != nil {
			fmt.Printf("  %s: %v\n", o.InputPath, o.Err)
		}
	}

	if opts.ReportPath != "" {
		format := services.ReportFormat(opts.ReportFormat)
		if err := services.WriteReport(opts.ReportPath, format, summary, warnings); err != nil {
			logger.Errorf("Failed to write report: %v", err)
		} else {
			logger.WithField("path", opts.ReportPath).Info("Report written")
		}
	}

	if summary.Failed > 0 || summary.Canceled > 0 {
		os.Exit(1)
	}
}

// runServer 以HTTP服务模式运行
func runServer(opts options, cfg *appconfig.Config, logger *logrus.Logger) {
	gin.SetMode(opts.Mode)
	logger.Info("Starting PDF replacement service...")

	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	fileStorage, err := setupStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	cacheService, err := setupCache(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}
	if cacheService != nil {
		defer cacheService.Close()
	}

	var queue taskqueue.Queue
	if cfg.Queue.Enable {
		queue, err = setupTaskQueue(cfg, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		logger.Info("Task queue initialized successfully")
	}

	repo := repository.NewJobRepository()
	statusManager := services.NewJobStatusManager(repo, logger)

	// 初始化API处理器
	fileHandler := handler.NewFileHandler(fileStorage)

	replaceOpts := []handler.ReplaceHandlerOption{}
	if cacheService != nil {
		replaceOpts = append(replaceOpts, handler.WithReplaceCache(cacheService))
	}
	replaceHandler := handler.NewReplaceHandler(replaceOpts...)

	jobOpts := []handler.JobHandlerOption{}
	if cacheService != nil {
		jobOpts = append(jobOpts, handler.WithJobCache(cacheService))
	}
	jobHandler := handler.NewJobHandler(statusManager, queue, jobOpts...)

	var taskHandler *handler.TaskHandler
	if queue != nil {
		taskHandler = handler.NewTaskHandler(queue)
	}

	r := api.SetupRouter(fileHandler, replaceHandler, jobHandler, taskHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, opts.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("Server is running on port %d", opts.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// runWorker 以队列worker模式运行
// 消费队列中的替换任务，可与HTTP服务分开部署
func runWorker(opts options, cfg *appconfig.Config, logger *logrus.Logger) {
	logger.Info("Starting PDF replacement worker...")

	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	queue, err := setupTaskQueue(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize task queue: %v", err)
	}
	defer queue.Close()

	rq, ok := queue.(*taskqueue.RedisQueue)
	if !ok {
		logger.Fatalf("Worker mode requires a redis task queue")
	}

	cacheService, err := setupCache(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}
	if cacheService != nil {
		defer cacheService.Close()
	}

	repo := repository.NewJobRepository()
	statusManager := services.NewJobStatusManager(repo, logger)

	handlerOpts := []taskqueue.HandlerOption{
		taskqueue.WithHandlerLogger(logger),
		taskqueue.WithStatusManager(statusManager),
	}
	if cacheService != nil {
		handlerOpts = append(handlerOpts, taskqueue.WithResultCache(cacheService))
	}
	replaceHandler := taskqueue.NewReplaceHandler(queue, handlerOpts...)

	worker := taskqueue.NewRedisWorker(rq, nil)
	for _, taskType := range replaceHandler.GetTaskTypes() {
		worker.RegisterHandler(taskType, replaceHandler)
	}

	if err := worker.Start(); err != nil {
		logger.Fatalf("Failed to start worker: %v", err)
	}
	logger.Info("Worker started, waiting for tasks")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	worker.Stop()
	logger.Info("Worker exited")
}
