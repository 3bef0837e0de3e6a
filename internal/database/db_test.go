package database

import "testing"

func TestBuildDSN(t *testing.T) {
	cases := []struct {
		name string
		user string
		pass string
		want string
	}{
		{
			name: "with password",
			user: "learnpulse",
			pass: "secret",
			want: "learnpulse:secret@tcp(db:3306)/learnpulse?charset=utf8mb4&parseTime=true&loc=UTC",
		},
		{
			name: "empty password omits the colon",
			user: "root",
			pass: "",
			want: "root@tcp(db:3306)/learnpulse?charset=utf8mb4&parseTime=true&loc=UTC",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := buildDSN(tc.user, tc.pass, "db", "3306", "learnpulse")
			if got != tc.want {
				t.Fatalf("buildDSN = %q, want %q", got, tc.want)
			}
		})
	}
}
