package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactCustomerID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"dashed", "123-456-7890", "***-***-7890"},
		{"digits only", "1234567890", "******7890"},
		{"short", "123", "***"},
		{"wrong dash count", "12-34", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactCustomerID(tt.in))
		})
	}
}

func TestRedactToken(t *testing.T) {
	assert.Equal(t, "abcd***", RedactToken("abcd1234efgh"))
	assert.Equal(t, "***", RedactToken("ab"))
}

func TestRedactValueByKey(t *testing.T) {
	assert.Equal(t, "***-***-7890", redactValue("customer_id", "123-456-7890"))
	assert.Equal(t, "devt***", redactValue("developer_token", "devtoken12345"))
	assert.Equal(t, "account ***-***-7890 synced", redactValue("msg_detail", "account 123-456-7890 synced"))
}
