package controllers

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func compileEmailRegex(t *testing.T, filter bson.M) *regexp.Regexp {
	t.Helper()
	rx, ok := filter["email"].(primitive.Regex)
	require.True(t, ok)
	require.Equal(t, "i", rx.Options)
	return regexp.MustCompile("(?i)" + rx.Pattern)
}

func TestEmailFilterMatchesCaseInsensitively(t *testing.T) {
	re := compileEmailRegex(t, emailFilter("buyer@example.com"))
	assert.True(t, re.MatchString("buyer@example.com"))
	assert.True(t, re.MatchString("Buyer@Example.COM"))
}

func TestEmailFilterIsAnchored(t *testing.T) {
	re := compileEmailRegex(t, emailFilter("buyer@example.com"))
	assert.False(t, re.MatchString("xbuyer@example.com"))
	assert.False(t, re.MatchString("buyer@example.comx"))
}

func TestEmailFilterEscapesMetacharacters(t *testing.T) {
	re := compileEmailRegex(t, emailFilter("a+b@example.com"))
	assert.True(t, re.MatchString("a+b@example.com"))
	assert.False(t, re.MatchString("ab@example.com"), "+ must not act as a quantifier")

	re = compileEmailRegex(t, emailFilter("a.b@example.com"))
	assert.False(t, re.MatchString("axb@example.com"), ". must not act as a wildcard")
}

func TestUnreadFilterOnlyTouchesUnreadRows(t *testing.T) {
	filter := unreadFilter("buyer@example.com")

	// MarkAllRead runs its bulk update through this filter: the first
	// call flips every unread row, a repeated call matches nothing.
	assert.Equal(t, false, filter["read"])
	_, ok := filter["email"].(primitive.Regex)
	assert.True(t, ok)
}

func TestNotificationListWindowIsFiftyMostRecent(t *testing.T) {
	opts := notificationListOptions()

	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(50), *opts.Limit)

	sort, ok := opts.Sort.(bson.D)
	require.True(t, ok)
	require.Len(t, sort, 1)
	assert.Equal(t, "createdAt", sort[0].Key)
	assert.Equal(t, -1, sort[0].Value)
}
