package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Salary is either a lower-bound amount or a free-form range string such as
// "45000 - 60000 YEARLY".
type Salary struct {
	Amount int
	Text   string
}

func SalaryAmount(n int) Salary {
	if n < 0 {
		n = 0
	}
	return Salary{Amount: n}
}

func SalaryText(s string) Salary {
	return Salary{Text: s}
}

func (s Salary) IsZero() bool {
	return s.Amount == 0 && s.Text == ""
}

func (s Salary) String() string {
	if s.Text != "" {
		return s.Text
	}
	return strconv.Itoa(s.Amount)
}

func (s Salary) MarshalJSON() ([]byte, error) {
	if s.Text != "" {
		return json.Marshal(s.Text)
	}
	return json.Marshal(s.Amount)
}

func (s *Salary) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Salary{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = SalaryText(text)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("salary must be a number or string: %w", err)
	}
	*s = SalaryAmount(int(n))
	return nil
}
