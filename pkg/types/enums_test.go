package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDirection(t *testing.T) {
	tests := []struct {
		d    Direction
		want string
	}{
		{DirUnknown, "unknown"},
		{DirInbound, "inbound"},
		{DirOutbound, "outbound"},
		{Direction(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.d.String(); got != tt.want {
				t.Errorf("Direction(%d).String() = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestAddressFamily(t *testing.T) {
	assert.Equal(t, "IPv4", FamilyIPv4.String())
	assert.Equal(t, "IPv6", FamilyIPv6.String())
	assert.Equal(t, 32, FamilyIPv4.MaxPrefixBits())
	assert.Equal(t, 128, FamilyIPv6.MaxPrefixBits())
	assert.Equal(t, -1, FamilyUnspecified.MaxPrefixBits())

	f, ok := ParseAddressFamily("IPv6")
	assert.True(t, ok)
	assert.Equal(t, FamilyIPv6, f)

	_, ok = ParseAddressFamily("ipx")
	assert.False(t, ok)
}

func TestDenyReason(t *testing.T) {
	assert.Equal(t, "subnet_limit", DenySubnetLimit.String())
	assert.Equal(t, "reputation", DenyReputation.String())
	assert.Equal(t, "unknown", DenyReason(99).String())
}

func TestExtenderUUIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	set := NewExtenderUUIDs(a)
	assert.True(t, set.HasExtender(a))
	assert.False(t, set.HasExtender(b))

	clone := set.Clone()
	clone.Add(b)
	assert.False(t, set.HasExtender(b), "clone must not alias")
	assert.Len(t, clone.List(), 2)

	clone.Remove(a)
	assert.False(t, clone.HasExtender(a))
}

func TestAdmissionVerdict(t *testing.T) {
	v := Admit(10)
	assert.True(t, v.Allowed)
	assert.Equal(t, DenyNone, v.Reason)

	v = Deny(DenyReputation, -2000)
	assert.False(t, v.Allowed)
	assert.Equal(t, DenyReputation, v.Reason)
	assert.Equal(t, int16(-2000), v.Score)
}
