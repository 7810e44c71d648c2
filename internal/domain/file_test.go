package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileTypeOf(t *testing.T) {
	tests := []struct {
		name string
		want FileType
	}{
		{"Project_Phoenix_Specs.pdf", FileTypePDF},
		{"Design_Assets_v2.ZIP", FileTypeZip},
		{"Marketing_Banner_Hero.png", FileTypeImg},
		{"Q4_Financial_Report.doc", FileTypeDoc},
		{"notes", FileTypeDoc},
		{"archive/backup.tar", FileTypeZip},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FileTypeOf(tt.name), tt.name)
	}
}

func TestAccountPublic(t *testing.T) {
	acc := Account{ID: "1", Name: "Ann", Email: "ann@x.com", PasswordHash: "hash"}

	u := acc.Public()

	assert.Equal(t, User{ID: "1", Name: "Ann", Email: "ann@x.com"}, u)
}
