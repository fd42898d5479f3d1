package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		cb      *tele.Callback
		unique  string
		payload string
	}{
		{nil, "", ""},
		{&tele.Callback{Data: "\fadmin|lang:ru"}, "admin", "lang:ru"},
		{&tele.Callback{Data: "\fadmin"}, "admin", ""},
		{&tele.Callback{Unique: "admin", Data: "key:final"}, "admin", "key:final"},
		{&tele.Callback{Data: "plain"}, "plain", ""},
	}
	for _, tc := range cases {
		unique, payload := ParseCallbackData(tc.cb)
		if unique != tc.unique || payload != tc.payload {
			t.Errorf("ParseCallbackData(%+v) = %q, %q; expected %q, %q", tc.cb, unique, payload, tc.unique, tc.payload)
		}
	}
}
