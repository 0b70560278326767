package net

import "testing"

func TestDamageSchema(t *testing.T) {
	good := `{"type":"DAMAGE","req_id":"q1","area_id":"vale","enemy_id":"wolf","damage":10}`
	if err := Validate(DamageSchema, []byte(good)); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}

	bad := []string{
		`{"type":"DAMAGE","req_id":"q1","area_id":"vale","enemy_id":"wolf"}`,           // missing damage
		`{"type":"DAMAGE","req_id":"q1","area_id":"vale","enemy_id":"wolf","damage":0}`, // zero damage
		`{"type":"DAMAGE","req_id":"q1","area_id":"vale","enemy_id":"wolf","damage":-3}`,
		`{"type":"DAMAGE","req_id":"","area_id":"vale","enemy_id":"wolf","damage":1}`, // empty req_id
		`{"type":"PICKUP","req_id":"q1","area_id":"vale","enemy_id":"wolf","damage":1}`,
		`not json`,
	}
	for i, msg := range bad {
		if err := Validate(DamageSchema, []byte(msg)); err == nil {
			t.Fatalf("case %d accepted: %s", i, msg)
		}
	}
}

func TestPickupSchema(t *testing.T) {
	good := `{"type":"PICKUP","req_id":"q1","area_id":"vale","item_id":"gi-1"}`
	if err := Validate(PickupSchema, []byte(good)); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
	if err := Validate(PickupSchema, []byte(`{"type":"PICKUP","req_id":"q1","area_id":"vale"}`)); err == nil {
		t.Fatalf("missing item_id accepted")
	}
}

func TestAuthSchema(t *testing.T) {
	good := `{"type":"AUTH","protocol_version":"1.0","name":"alice","password":"pw"}`
	if err := Validate(AuthSchema, []byte(good)); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
	if err := Validate(AuthSchema, []byte(`{"type":"AUTH","protocol_version":"1.0","name":""}`)); err == nil {
		t.Fatalf("empty name accepted")
	}
}

func TestDecodeBase(t *testing.T) {
	base, err := DecodeBase([]byte(`{"type":"DAMAGE","req_id":"x"}`))
	if err != nil || base.Type != TypeDamage {
		t.Fatalf("base = %+v err = %v", base, err)
	}
	if _, err := DecodeBase([]byte(`{`)); err == nil {
		t.Fatalf("malformed json accepted")
	}
}
