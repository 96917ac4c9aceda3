package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderReplacesAllOccurrences(t *testing.T) {
	out := Render("{{alerts}} e de novo {{alerts}}", map[Token]string{TokenAlerts: "X"})
	assert.Equal(t, "X e de novo X", out)
}

func TestRenderLeavesMissingValuesUntouched(t *testing.T) {
	out := Render("{{alerts}} | {{trends}}", map[Token]string{TokenAlerts: "X"})
	assert.Equal(t, "X | {{trends}}", out)
}

func TestUnknownTokens(t *testing.T) {
	tpl := "{{alerts}} {{foo}} {{bar}} {{foo}} {{panorama}}"
	assert.Equal(t, []string{"{{foo}}", "{{bar}}"}, UnknownTokens(tpl))

	assert.Nil(t, UnknownTokens("{{alerts}} {{suggestions}}"))
	assert.Nil(t, UnknownTokens("sem placeholders"))
}
