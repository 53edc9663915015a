package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/ta-assign/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

var (
	weekdays    = []string{"M", "T", "W", "R", "F"}
	timeSlots   = []string{"800-940", "950-1130", "1145-125", "135-315", "325-505", "600-740"}
	buildings   = []string{"东校园", "南校园", "北校园", "珠海校区"}
	topics      = []string{"程序设计", "数据结构", "计算机网络", "操作系统", "数据库", "编译原理", "算法设计"}
	preferences = []domain.Preference{domain.PreferencePreferred, domain.PreferenceWilling, domain.PreferenceUnwilling}
)

// GenerateRandomDaytime 生成形如 "R 1145-125" 的上课时间
// 时间段的数量有限，所以多个 section 很可能共享同一个时间
func GenerateRandomDaytime() string {
	return weekdays[rand.Intn(len(weekdays))] + " " + timeSlots[rand.Intn(len(timeSlots))]
}

func GenerateRandomSection(index int) *domain.Section {
	minTA := rand.Intn(4) + 1

	return &domain.Section{
		Index:      index,
		Instructor: GenerateRandomChineseName(),
		Daytime:    GenerateRandomDaytime(),
		Location:   fmt.Sprintf("%s %s", buildings[rand.Intn(len(buildings))], GenerateRandomID(1, 3)),
		Students:   rand.Intn(40) + 10,
		Topic:      topics[rand.Intn(len(topics))],
		MinTA:      minTA,
		MaxTA:      minTA + rand.Intn(3),
	}
}

func GenerateRandomTA(index int, numSections int) *domain.TA {
	name := GenerateRandomChineseName()

	ta := &domain.TA{
		Index:       index,
		Name:        name,
		Username:    GenerateUsernameFromChineseName(name),
		MaxAssigned: rand.Intn(4),
		Preferences: make([]domain.Preference, numSections),
	}
	for j := range ta.Preferences {
		ta.Preferences[j] = preferences[rand.Intn(len(preferences))]
	}

	return ta
}

// GenerateRandomTables 生成一组可以直接用于分配的 section 和 TA
func GenerateRandomTables(numSections int, numTAs int) ([]domain.Section, []domain.TA) {
	sections := make([]domain.Section, numSections)
	for j := range sections {
		sections[j] = *GenerateRandomSection(j)
	}

	tas := make([]domain.TA, numTAs)
	for i := range tas {
		tas[i] = *GenerateRandomTA(i, numSections)
	}

	return sections, tas
}

// GenerateRandomMatrix 按 density 的概率把每个格子置 1
func GenerateRandomMatrix(tables *assignment.Tables, density float64) *assignment.Matrix {
	if tables.NumTAs() == 0 {
		return tables.ZeroMatrix()
	}

	rows := make([][]int, tables.NumTAs())
	for i := range rows {
		rows[i] = make([]int, tables.NumSections())
		for j := range rows[i] {
			if rand.Float64() < density {
				rows[i][j] = 1
			}
		}
	}

	// 行列数与 tables 一致且只有 0/1，不会出错
	m, _ := assignment.MatrixFromRows(rows)
	return m
}
