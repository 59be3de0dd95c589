// Package api holds the request schemas, the auth gate and the method
// dispatcher behind the single JSON endpoint.
package api

import (
	"errors"
	"time"

	"scoringapi/internal/fields"
	"scoringapi/internal/scoring"
)

const AdminLogin = "admin"

// Gender values.
const (
	GenderUnknown = 0
	GenderMale    = 1
	GenderFemale  = 2
)

var Genders = map[int]string{
	GenderUnknown: "unknown",
	GenderMale:    "male",
	GenderFemale:  "female",
}

// newEnvelopeSchema describes the top-level method envelope.
func newEnvelopeSchema() *fields.Schema {
	return fields.NewSchema(
		fields.Field{Name: "account", Nullable: true, Check: fields.String},
		fields.Field{Name: "login", Required: true, Nullable: true, Check: fields.String},
		fields.Field{Name: "token", Required: true, Nullable: true, Check: fields.String},
		fields.Field{Name: "arguments", Required: true, Nullable: true, Check: fields.Mapping},
		fields.Field{Name: "method", Required: true, Check: fields.String},
	)
}

func newOnlineScoreSchema(now func() time.Time) *fields.Schema {
	// Declaration order is also the order of the "has" context list.
	return fields.NewSchema(
		fields.Field{Name: "phone", Nullable: true, Check: fields.Phone},
		fields.Field{Name: "email", Nullable: true, Check: fields.Email},
		fields.Field{Name: "first_name", Nullable: true, Check: fields.String},
		fields.Field{Name: "last_name", Nullable: true, Check: fields.String},
		fields.Field{Name: "birthday", Nullable: true, Check: fields.Birthday(now)},
		fields.Field{Name: "gender", Nullable: true, Check: fields.Gender},
	)
}

func newClientsInterestsSchema() *fields.Schema {
	return fields.NewSchema(
		fields.Field{Name: "client_ids", Required: true, Check: fields.ClientIDs},
		fields.Field{Name: "date", Nullable: true, Check: fields.Date},
	)
}

// MethodRequest is the typed form of a validated envelope.
type MethodRequest struct {
	Account   string
	Login     string
	Token     string
	Arguments map[string]any
	Method    string
}

func (r MethodRequest) IsAdmin() bool {
	return r.Login == AdminLogin
}

func bindMethodRequest(inst *fields.Instance) MethodRequest {
	str := func(name string) string {
		s, _ := inst.Value(name).(string)
		return s
	}
	args, _ := inst.Value("arguments").(map[string]any)
	return MethodRequest{
		Account:   str("account"),
		Login:     str("login"),
		Token:     str("token"),
		Arguments: args,
		Method:    str("method"),
	}
}

var errNoPairs = errors.New("at least one pair must be supplied: phone/email, first_name/last_name, gender/birthday")

// checkScorePairs is the cross-field rule for online_score, applied after
// per-field validation. Presence counts, an explicit null still pairs.
func checkScorePairs(inst *fields.Instance) error {
	pairs := [...][2]string{
		{"phone", "email"},
		{"first_name", "last_name"},
		{"gender", "birthday"},
	}
	for _, pair := range pairs {
		if inst.Present(pair[0]) && inst.Present(pair[1]) {
			return nil
		}
	}
	return errNoPairs
}

func bindScoreInput(inst *fields.Instance) scoring.Input {
	in := scoring.Input{}
	in.FirstName, _ = inst.Value("first_name").(string)
	in.LastName, _ = inst.Value("last_name").(string)
	in.Email, _ = inst.Value("email").(string)
	if inst.Value("phone") != nil {
		in.Phone, _ = fields.PhoneString(inst.Value("phone"))
	}
	if s, ok := inst.Value("birthday").(string); ok && s != "" {
		bdate, _ := time.Parse(fields.DateLayout, s)
		in.Birthday = &bdate
	}
	if n, ok := fields.Integral(inst.Value("gender")); ok {
		gender := int(n)
		in.Gender = &gender
	}
	return in
}

func bindClientIDs(inst *fields.Instance) []int {
	list, _ := inst.Value("client_ids").([]any)
	ids := make([]int, 0, len(list))
	for _, item := range list {
		n, _ := fields.Integral(item)
		ids = append(ids, int(n))
	}
	return ids
}
