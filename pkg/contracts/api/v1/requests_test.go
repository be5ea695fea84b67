package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexInt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    FlexInt
		wantErr bool
	}{
		{"integer", `3`, 3, false},
		{"negative integer", `-2`, -2, false},
		{"float truncated", `2.9`, 2, false},
		{"negative float truncated", `-1.5`, -1, false},
		{"numeric string", `"12"`, 12, false},
		{"float string", `"1.5"`, 1, false},
		{"exponent", `1e2`, 100, false},
		{"null keeps default", `null`, 7, false},
		{"word", `"twelve"`, 0, true},
		{"bool", `true`, 0, true},
		{"object", `{}`, 0, true},
		{"huge", `1e20`, 0, true},
		{"large integer", `4000`, 4000, false},
		{"int32 max", `2147483647`, 2147483647, false},
		{"past int32", `2147483648`, 0, true},
		{"int64 max", `9223372036854775807`, 0, true},
		{"int64 max string", `"9223372036854775807"`, 0, true},
		{"past int64", `99999999999999999999`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FlexInt(7)
			err := json.Unmarshal([]byte(tt.input), &v)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestCreateKeyRequest_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantKey    string
		wantMonths FlexInt
		wantBypass bool
	}{
		{"key only", `{"key":"ABC"}`, "ABC", 1, false},
		{"all fields", `{"key":"ABC","months":6,"hwid_bypass":true}`, "ABC", 6, true},
		{"months as string", `{"key":"ABC","months":"3"}`, "ABC", 3, false},
		{"zero months", `{"key":"ABC","months":0}`, "ABC", 0, false},
		{"unknown fields ignored", `{"key":"ABC","extra":1}`, "ABC", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewCreateKeyRequest()
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.wantKey, req.Key)
			assert.Equal(t, tt.wantMonths, req.Months)
			assert.Equal(t, tt.wantBypass, req.HwidBypass)
		})
	}
}

func TestUpdateKeyRequest(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name     string
		body     string
		wantSet  bool
		wantHwid *string
		wantErr  bool
	}{
		{"string", `{"hwid":"PC-1"}`, true, strPtr("PC-1"), false},
		{"null", `{"hwid":null}`, true, nil, false},
		{"empty string", `{"hwid":""}`, true, strPtr(""), false},
		{"missing field", `{"months":3}`, false, nil, false},
		{"empty object", `{}`, false, nil, false},
		{"number", `{"hwid":42}`, false, nil, true},
		{"array body", `[1,2]`, false, nil, true},
		{"null body", `null`, false, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateKeyRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSet, req.HwidSet)
			assert.Equal(t, tt.wantHwid, req.Hwid)
		})
	}
}

func TestResponses_SortedKeys(t *testing.T) {
	id := int64(4)
	hwid := "PC-1"

	tests := []struct {
		name string
		v    interface{}
		want string
	}{
		{"index", MessageResponse{Message: MessageAPIOnline, Status: StatusOK}, `{"message":"API online","status":"ok"}`},
		{"created", CreateKeyResponse{ID: 1, Status: StatusOK}, `{"id":1,"status":"ok"}`},
		{"error", ErrorResponse{Error: "key required"}, `{"error":"key required"}`},
		{"verify ok", VerifyResponse{ID: &id, Message: MessageKeyValid, Status: StatusOK}, `{"id":4,"message":"key valid","status":"ok"}`},
		{"verify rejected", VerifyResponse{Message: MessageKeyExpired, Status: StatusExpired}, `{"message":"key expired","status":"expired"}`},
		{
			"key view",
			KeyView{CreatedAt: "2025-01-01T00:00:00.000000", ExpiresAt: "2025-01-31T00:00:00.000000", Hwid: &hwid, ID: 1, Key: "K", Months: 1},
			`{"created_at":"2025-01-01T00:00:00.000000","expires_at":"2025-01-31T00:00:00.000000","hwid":"PC-1","id":1,"key":"K","months":1}`,
		},
		{"key view null hwid", KeyView{ID: 2}, `{"created_at":"","expires_at":"","hwid":null,"id":2,"key":"","months":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
		})
	}
}
