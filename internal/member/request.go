package member

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexString は JSON の文字列・数値・null を文字列として受け取ります。
// フロントエンドは phone_number や office_number を数値で送ることがあります。
type FlexString string

// UnmarshalJSON は json.Unmarshaler の実装です。
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = FlexString(n.String())
	return nil
}

type signupPayload struct {
	Name             FlexString `json:"name"`
	PhoneNumber      FlexString `json:"phone_number"`
	Email            FlexString `json:"email"`
	Password         FlexString `json:"password"`
	StoreName        FlexString `json:"store_name"`
	StoreManagerName FlexString `json:"store_manger_name"`
	StoreAddress     FlexString `json:"store_address"`
	Region           FlexString `json:"region"`
	OfficeName       FlexString `json:"office_name"`
	OfficeNumber     FlexString `json:"office_number"`
}

func (p signupPayload) toRequest() SignupRequest {
	return SignupRequest{
		Name:             string(p.Name),
		PhoneNumber:      string(p.PhoneNumber),
		Email:            string(p.Email),
		Password:         string(p.Password),
		StoreName:        string(p.StoreName),
		StoreManagerName: string(p.StoreManagerName),
		StoreAddress:     string(p.StoreAddress),
		Region:           string(p.Region),
		OfficeName:       string(p.OfficeName),
		OfficeNumber:     string(p.OfficeNumber),
	}
}

type loginPayload struct {
	Email    FlexString `json:"email"`
	Password FlexString `json:"password"`
}

type findAccountPayload struct {
	Name        FlexString `json:"name"`
	PhoneNumber FlexString `json:"phone_number"`
}
