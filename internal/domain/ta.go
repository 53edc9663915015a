package domain

type Preference byte

const (
	PreferencePreferred Preference = 'P'
	PreferenceWilling   Preference = 'W'
	PreferenceUnwilling Preference = 'U'
)

// PreferenceUnknown 是空白或缺失的偏好，不计入任何目标
const PreferenceUnknown Preference = '?'

func (p Preference) String() string {
	return string(p)
}

func (p Preference) Valid() bool {
	return p == PreferencePreferred || p == PreferenceWilling || p == PreferenceUnwilling
}

// 实现 TextMarshaler 之后 []Preference 会被编码为 ["P","W"] 而不是 base64
func (p Preference) MarshalText() ([]byte, error) {
	return []byte{byte(p)}, nil
}

func (p *Preference) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = PreferenceUnknown
		return nil
	}
	*p = Preference(text[0])
	return nil
}

type TA struct {
	ID          int64        `json:"id"`
	Index       int          `json:"index"` // 在分配矩阵中的行号
	Name        string       `json:"name"`
	Username    string       `json:"username"`
	MaxAssigned int          `json:"maxAssigned" validate:"min=0"`
	Preferences []Preference `json:"preferences"` // 第 j 项对应第 j 个 section
}

// PreferenceString 把偏好压缩成形如 "PWUU..." 的字符串，便于存储
func (ta *TA) PreferenceString() string {
	b := make([]byte, len(ta.Preferences))
	for i, p := range ta.Preferences {
		b[i] = byte(p)
	}
	return string(b)
}

func ParsePreferences(s string) []Preference {
	prefs := make([]Preference, len(s))
	for i := 0; i < len(s); i++ {
		prefs[i] = Preference(s[i])
	}
	return prefs
}
