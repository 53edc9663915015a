package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/config"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/report"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/repository"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var sectionsPath, tasPath, matrixPath string
	var numSections, numTAs int
	var runID int64
	var iterations int
	var seedValue int64
	var groupLabel, outputDir string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 导入 csv 数据, 2: 插入随机数据, 3: 评估分配矩阵, 4: 本地运行, 5: 导出运行结果)")
	flag.StringVar(&sectionsPath, "sections", "./data/sections.csv", "section 表的路径")
	flag.StringVar(&tasPath, "tas", "./data/tas.csv", "TA 表的路径")
	flag.StringVar(&matrixPath, "matrix", "", "要评估的分配矩阵的路径")
	flag.IntVar(&numSections, "n-sections", 17, "随机生成的 section 数量")
	flag.IntVar(&numTAs, "n-tas", 43, "随机生成的 TA 数量")
	flag.Int64Var(&runID, "run-id", 0, "要导出结果的运行 ID")
	flag.IntVar(&iterations, "iterations", 0, "本地运行的最大迭代次数，0 表示使用配置中的值")
	flag.Int64Var(&seedValue, "seed", 0, "本地运行的随机数种子")
	flag.StringVar(&groupLabel, "group", "", "结果文件的组名，为空时使用配置中的值")
	flag.StringVar(&outputDir, "output", "", "结果文件的输出目录，为空时使用配置中的值")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		withRepository(func(repo *repository.Repository) {
			if err := seed.SeedTablesFromFiles(repo, sectionsPath, tasPath); err != nil {
				slog.Error("无法导入数据", slog.String("error", err.Error()))
			}
		})
	case 2:
		if numSections <= 0 || numTAs <= 0 {
			slog.Error("请输入合法的 section 和 TA 数量")
			return
		}
		withRepository(func(repo *repository.Repository) {
			if err := seed.SeedRandomTables(repo, numSections, numTAs); err != nil {
				slog.Error("无法插入随机数据", slog.String("error", err.Error()))
			}
		})
	case 3:
		if matrixPath == "" {
			slog.Error("请指定分配矩阵的路径")
			return
		}
		evaluate(sectionsPath, tasPath, matrixPath)
	case 4:
		cfg, err := config.LoadLocalConfig()
		if err != nil {
			slog.Error("无法读取配置文件", slog.String("error", err.Error()))
			return
		}
		if iterations > 0 {
			cfg.Scheduler.MaxIterations = iterations
		}
		if groupLabel != "" {
			cfg.Report.GroupLabel = groupLabel
		}
		if outputDir != "" {
			cfg.Report.OutputDir = outputDir
		}
		runLocally(cfg, sectionsPath, tasPath, seedValue)
	case 5:
		if runID <= 0 {
			slog.Error("请输入合法的运行 ID")
			return
		}
		withRepository(func(repo *repository.Repository) {
			exportRun(repo, runID, groupLabel, outputDir)
		})
	default:
		slog.Error("指定的操作非法")
	}
}

// withRepository 连接数据库后执行 fn
func withRepository(fn func(repo *repository.Repository)) {
	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		slog.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		slog.Error("无法连接到数据库", "error", err)
		return
	}

	fn(repository.NewRepository(cfg, dbpool))
}

func evaluate(sectionsPath, tasPath, matrixPath string) {
	_, _, tables, err := seed.LoadTables(sectionsPath, tasPath)
	if err != nil {
		slog.Error("无法读取 section 和 TA", slog.String("error", err.Error()))
		return
	}

	m, err := seed.LoadMatrixFile(matrixPath)
	if err != nil {
		slog.Error("无法读取分配矩阵", slog.String("error", err.Error()))
		return
	}

	eval, err := tables.Evaluate(m)
	if err != nil {
		slog.Error("无法评估分配矩阵", slog.String("error", err.Error()))
		return
	}

	for _, pair := range eval.Pairs() {
		fmt.Printf("%-16s %d\n", pair.Name, pair.Score)
	}
}

func runLocally(cfg *config.LocalConfig, sectionsPath, tasPath string, seedValue int64) {
	_, _, tables, err := seed.LoadTables(sectionsPath, tasPath)
	if err != nil {
		slog.Error("无法读取 section 和 TA", slog.String("error", err.Error()))
		return
	}

	rp := cfg.Scheduler.RunParameters()
	rp.Seed = seedValue
	parameters, err := scheduler.ParametersFromRun(rp)
	if err != nil {
		slog.Error("运行参数不合法", slog.String("error", err.Error()))
		return
	}

	s, err := scheduler.New(parameters, tables)
	if err != nil {
		slog.Error("无法创建调度器", slog.String("error", err.Error()))
		return
	}
	if err := s.AddSolution(tables.ZeroMatrix()); err != nil {
		slog.Error("无法加入初始解", slog.String("error", err.Error()))
		return
	}

	// CTRL+C 提前结束进化，已有的结果仍然会被写入
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Schedule(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("进化失败", slog.String("error", err.Error()))
		return
	}

	writeResults(report.FromSchedule(s.Solutions()), cfg.Report.OutputDir, cfg.Report.GroupLabel)
	printFront(s.Solutions())
}

func exportRun(repo *repository.Repository, runID int64, groupLabel, outputDir string) {
	run, err := repo.GetRunByID(runID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			slog.Error("指定的运行不存在", slog.Int64("run_id", runID))
		default:
			slog.Error("无法获取运行", slog.String("error", err.Error()))
		}
		return
	}

	solutions, err := repo.GetRunSolutions(runID)
	if err != nil {
		slog.Error("无法获取运行结果", slog.String("error", err.Error()))
		return
	}

	if groupLabel == "" {
		groupLabel = run.GroupLabel
	}
	if outputDir == "" {
		outputDir = filepath.Join(".", "output", strconv.FormatInt(runID, 10))
	}

	writeResults(solutions, outputDir, groupLabel)
}

func writeResults(solutions []domain.RunSolution, outputDir, groupLabel string) {
	summaryPath, solutionsPath, err := report.WriteFiles(outputDir, groupLabel, solutions)
	if err != nil {
		slog.Error("无法写入结果文件", slog.String("error", err.Error()))
		return
	}

	slog.Info("结果文件已写入", slog.Int("solutions", len(solutions)), slog.String("summary", summaryPath), slog.String("solutions_file", solutionsPath))
}

func printFront(solutions []scheduler.Solution) {
	for _, s := range solutions {
		fmt.Println(s.Evaluation.String())
	}
	if len(solutions) > 0 {
		fmt.Printf("\n%s 最小的解:\n%s", assignment.Overallocation, solutions[0].Matrix.String())
	}
}
