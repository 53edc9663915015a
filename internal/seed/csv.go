package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/utils"
)

// 读取整个 csv 文件，第一行为表头，返回表头到列号的映射和数据行
func readTable(r io.Reader) (map[string]int, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("文件为空")
		}
		return nil, nil, fmt.Errorf("读取表头失败: %w", err)
	}

	columns := make(map[string]int, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		columns[header] = i
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("读取数据失败: %w", err)
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}

func requireColumns(columns map[string]int, names ...string) error {
	for _, name := range names {
		if _, exists := columns[name]; !exists {
			return fmt.Errorf("缺少列 %q", name)
		}
	}
	return nil
}

// 可选列不存在时返回空字符串
func cell(row []string, columns map[string]int, name string) string {
	i, exists := columns[name]
	if !exists || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func intCell(row []string, columns map[string]int, name string, line int) (int, error) {
	value := cell(row, columns, name)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("第 %d 行的 %s 不是整数: %q", line, name, value)
	}
	return n, nil
}

// ReadSections 读取 section 表，列包括 section,instructor,daytime,location,students,topic,min_ta,max_ta
// 行顺序即矩阵的列顺序
func ReadSections(r io.Reader) ([]domain.Section, error) {
	columns, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(columns, "daytime", "min_ta"); err != nil {
		return nil, err
	}

	sections := make([]domain.Section, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		section := domain.Section{
			Index:      i,
			Instructor: cell(row, columns, "instructor"),
			Daytime:    cell(row, columns, "daytime"),
			Location:   cell(row, columns, "location"),
			Topic:      cell(row, columns, "topic"),
		}

		if section.Students, err = intCell(row, columns, "students", line); err != nil {
			return nil, err
		}
		if section.MinTA, err = intCell(row, columns, "min_ta", line); err != nil {
			return nil, err
		}
		if section.MaxTA, err = intCell(row, columns, "max_ta", line); err != nil {
			return nil, err
		}

		sections = append(sections, section)
	}

	return sections, nil
}

// ReadTAs 读取 TA 表，列包括 ta_id,name,max_assigned 以及 0..numSections-1 的偏好列
func ReadTAs(r io.Reader, numSections int) ([]domain.TA, error) {
	columns, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(columns, "max_assigned"); err != nil {
		return nil, err
	}
	for j := 0; j < numSections; j++ {
		if err := requireColumns(columns, strconv.Itoa(j)); err != nil {
			return nil, err
		}
	}

	tas := make([]domain.TA, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		ta := domain.TA{
			Index:       i,
			Name:        cell(row, columns, "name"),
			Preferences: make([]domain.Preference, numSections),
		}

		if ta.MaxAssigned, err = intCell(row, columns, "max_assigned", line); err != nil {
			return nil, err
		}

		for j := 0; j < numSections; j++ {
			code := strings.ToUpper(cell(row, columns, strconv.Itoa(j)))
			if code == "" {
				// 未填写的偏好既不算 U 也不算 W
				ta.Preferences[j] = domain.PreferenceUnknown
				continue
			}
			ta.Preferences[j] = domain.Preference(code[0])
		}

		tas = append(tas, ta)
	}

	return tas, nil
}

// ReadMatrix 读取没有表头的 0/1 矩阵
func ReadMatrix(r io.Reader) (*assignment.Matrix, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // 行长不一致交给 MatrixFromRows 报错

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取矩阵失败: %w", err)
	}

	data := make([][]int, len(records))
	for i, record := range records {
		data[i] = make([]int, len(record))
		for j, value := range record {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("矩阵第 %d 行第 %d 列不是整数: %q", i+1, j+1, value)
			}
			data[i][j] = n
		}
	}

	return assignment.MatrixFromRows(data)
}

func openAnd[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T

	file, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer file.Close()

	v, err := read(file)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func LoadSectionsFile(path string) ([]domain.Section, error) {
	return openAnd(path, ReadSections)
}

func LoadTAsFile(path string, numSections int) ([]domain.TA, error) {
	return openAnd(path, func(r io.Reader) ([]domain.TA, error) {
		return ReadTAs(r, numSections)
	})
}

func LoadMatrixFile(path string) (*assignment.Matrix, error) {
	return openAnd(path, ReadMatrix)
}

// LoadTables 从两个 csv 文件构建参考数据
func LoadTables(sectionsPath, tasPath string) ([]domain.Section, []domain.TA, *assignment.Tables, error) {
	sections, err := LoadSectionsFile(sectionsPath)
	if err != nil {
		return nil, nil, nil, err
	}

	tas, err := LoadTAsFile(tasPath, len(sections))
	if err != nil {
		return nil, nil, nil, err
	}

	if err := utils.ValidateCounts(sections, tas); err != nil {
		return nil, nil, nil, err
	}

	tables, err := assignment.NewTables(sections, tas)
	if err != nil {
		return nil, nil, nil, err
	}

	return sections, tas, tables, nil
}
