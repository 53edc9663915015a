package assignment

import (
	"fmt"
	"strings"
)

// Matrix 是 TA × section 的 0/1 分配矩阵，行表示 TA，列表示 section
// 列数是矩阵自身的属性，不依赖任何一行的长度
type Matrix struct {
	rows  int
	cols  int
	cells []uint8
}

func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}

	return &Matrix{
		rows:  rows,
		cols:  cols,
		cells: make([]uint8, rows*cols),
	}, nil
}

// MatrixFromRows 从二维切片构建矩阵，所有行必须等长且只包含 0 或 1
func MatrixFromRows(data [][]int) (*Matrix, error) {
	rows := len(data)
	cols := 0
	if rows > 0 {
		cols = len(data[0])
	}

	m, err := NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}

	for i, row := range data {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrRaggedMatrix, i, len(row), cols)
		}
		for j, v := range row {
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("%w: (%d, %d) = %d", ErrInvalidCell, i, j, v)
			}
			m.cells[i*cols+j] = uint8(v)
		}
	}

	return m, nil
}

func (m *Matrix) Rows() int { return m.rows }

func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) At(i, j int) int {
	return int(m.cells[i*m.cols+j])
}

func (m *Matrix) set(i, j, v int) {
	m.cells[i*m.cols+j] = uint8(v)
}

func (m *Matrix) flip(i, j int) {
	m.cells[i*m.cols+j] ^= 1
}

func (m *Matrix) RowSum(i int) int {
	sum := 0
	for _, v := range m.cells[i*m.cols : (i+1)*m.cols] {
		sum += int(v)
	}
	return sum
}

func (m *Matrix) ColSum(j int) int {
	sum := 0
	for i := 0; i < m.rows; i++ {
		sum += int(m.cells[i*m.cols+j])
	}
	return sum
}

// Ones 返回矩阵中被分配的格子总数
func (m *Matrix) Ones() int {
	sum := 0
	for _, v := range m.cells {
		sum += int(v)
	}
	return sum
}

// assignedCols 返回第 i 行中值为 1 的列号
func (m *Matrix) assignedCols(i int) []int {
	cols := []int{}
	for j := 0; j < m.cols; j++ {
		if m.At(i, j) == 1 {
			cols = append(cols, j)
		}
	}
	return cols
}

func (m *Matrix) Clone() *Matrix {
	c := &Matrix{
		rows:  m.rows,
		cols:  m.cols,
		cells: make([]uint8, len(m.cells)),
	}
	copy(c.cells, m.cells)
	return c
}

func (m *Matrix) SameShape(other *Matrix) bool {
	return m.rows == other.rows && m.cols == other.cols
}

func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil || !m.SameShape(other) {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

func (m *Matrix) RowEqual(i int, other *Matrix) bool {
	for j := 0; j < m.cols; j++ {
		if m.At(i, j) != other.At(i, j) {
			return false
		}
	}
	return true
}

func (m *Matrix) ToRows() [][]int {
	data := make([][]int, m.rows)
	for i := range data {
		data[i] = make([]int, m.cols)
		for j := range data[i] {
			data[i][j] = m.At(i, j)
		}
	}
	return data
}

func (m *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			sb.WriteByte('0' + m.cells[i*m.cols+j])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
