package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/scheduler"
)

var summaryHeader = []string{"groupname", "overallocation", "conflicts", "undersupport", "unwilling", "unpreferred"}

// FromSchedule 把调度器保留下来的解转换为可存储的结果
func FromSchedule(solutions []scheduler.Solution) []domain.RunSolution {
	result := make([]domain.RunSolution, len(solutions))
	for i, s := range solutions {
		result[i] = domain.RunSolution{
			Overallocation: s.Evaluation.Get(assignment.Overallocation),
			Conflicts:      s.Evaluation.Get(assignment.Conflicts),
			Undersupport:   s.Evaluation.Get(assignment.Undersupport),
			Unwilling:      s.Evaluation.Get(assignment.Unwilling),
			Unpreferred:    s.Evaluation.Get(assignment.Unpreferred),
			Assignment:     s.Matrix.ToRows(),
		}
	}
	return result
}

func scoreFields(groupLabel string, s domain.RunSolution) []string {
	return []string{
		groupLabel,
		strconv.Itoa(s.Overallocation),
		strconv.Itoa(s.Conflicts),
		strconv.Itoa(s.Undersupport),
		strconv.Itoa(s.Unwilling),
		strconv.Itoa(s.Unpreferred),
	}
}

// WriteSummary 每个解一行分数
func WriteSummary(w io.Writer, groupLabel string, solutions []domain.RunSolution) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(summaryHeader); err != nil {
		return err
	}
	for _, s := range solutions {
		if err := writer.Write(scoreFields(groupLabel, s)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSolutions 每个解一行：分数之后是按行展开的矩阵
func WriteSolutions(w io.Writer, groupLabel string, solutions []domain.RunSolution) error {
	writer := csv.NewWriter(w)

	for _, s := range solutions {
		record := scoreFields(groupLabel, s)
		for _, row := range s.Assignment {
			for _, v := range row {
				record = append(record, strconv.Itoa(v))
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFiles 在 dir 下生成 <group>_summary.csv 和 <group>_solutions.csv
func WriteFiles(dir, groupLabel string, solutions []domain.RunSolution) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	summaryPath := filepath.Join(dir, groupLabel+"_summary.csv")
	solutionsPath := filepath.Join(dir, groupLabel+"_solutions.csv")

	if err := writeFile(summaryPath, func(w io.Writer) error {
		return WriteSummary(w, groupLabel, solutions)
	}); err != nil {
		return "", "", err
	}
	if err := writeFile(solutionsPath, func(w io.Writer) error {
		return WriteSolutions(w, groupLabel, solutions)
	}); err != nil {
		return "", "", err
	}

	return summaryPath, solutionsPath, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}

	return file.Close()
}
