package cvr

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// flexValue holds a JSON scalar the registry may send as a string, a number or null
type flexValue json.RawMessage

func (v *flexValue) UnmarshalJSON(data []byte) error {
	*v = append((*v)[:0], data...)
	return nil
}

func (v flexValue) isNull() bool {
	t := bytes.TrimSpace(v)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// String renders strings, numbers and booleans as text; objects, arrays and null as ""
func (v flexValue) String() string {
	if v.isNull() {
		return ""
	}
	t := bytes.TrimSpace(v)
	switch t[0] {
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{', '[':
		return ""
	default:
		return string(t)
	}
}

// Int accepts numbers, numeric strings and ranges like "50-99" (lower bound)
func (v flexValue) Int() int {
	s := v.String()
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	if lo, _, ok := strings.Cut(s, "-"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(lo)); err == nil {
			return n
		}
	}
	return 0
}

func (v flexValue) Float() *float64 {
	s := v.String()
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

type addressObject struct {
	Street     flexValue `json:"street"`
	StreetCode flexValue `json:"streetcode"`
	Zipcode    flexValue `json:"zipcode"`
	City       flexValue `json:"city"`
}

func field(fields map[string]flexValue, key string) flexValue {
	return fields[key]
}

// parseCompany maps a decoded registry payload onto Company
func parseCompany(fields map[string]flexValue, number string, fetchedAt time.Time) Company {
	c := Company{
		CVRNumber:       number,
		Name:            field(fields, "name").String(),
		IndustryCode:    field(fields, "industrycode").String(),
		IndustryText:    field(fields, "industrydesc").String(),
		Employees:       parseEmployees(fields),
		AnnualRevenue:   field(fields, "revenue").Float(),
		Phone:           field(fields, "phone").String(),
		Email:           field(fields, "email").String(),
		Website:         field(fields, "homepage").String(),
		Status:          field(fields, "status").String(),
		EstablishedDate: field(fields, "startdate").String(),
		LegalForm:       field(fields, "companyform").String(),
		FetchedAt:       fetchedAt,
	}
	if c.Status == "" {
		c.Status = "unknown"
	}

	c.Address, c.City, c.PostalCode = parseAddress(fields)
	return c
}

func parseEmployees(fields map[string]flexValue) int {
	if n := field(fields, "employees").Int(); n > 0 {
		return n
	}
	raw, ok := fields["employment"]
	if !ok || raw.isNull() {
		return 0
	}
	var employment struct {
		NumEmployees flexValue `json:"numEmployees"`
	}
	if err := json.Unmarshal(raw, &employment); err != nil {
		return 0
	}
	return employment.NumEmployees.Int()
}

func parseAddress(fields map[string]flexValue) (address, city, postal string) {
	raw := field(fields, "address")
	t := bytes.TrimSpace(raw)
	if len(t) > 0 && t[0] == '{' {
		var obj addressObject
		if err := json.Unmarshal(t, &obj); err == nil {
			parts := make([]string, 0, 2)
			if s := obj.Street.String(); s != "" {
				parts = append(parts, s)
			}
			if s := obj.StreetCode.String(); s != "" {
				parts = append(parts, s)
			}
			return strings.Join(parts, " "), obj.City.String(), obj.Zipcode.String()
		}
	}
	return raw.String(), field(fields, "city").String(), field(fields, "zipcode").String()
}
