package preferences

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferminotify/core/internal/middleware"
	"github.com/ferminotify/core/internal/models"
	"github.com/ferminotify/core/internal/testutil"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewService(db, nil)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group(""), middleware.Auth())
	return r, svc
}

func TestParseMinute(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{`"06:00"`, 360, false},
		{`"6:05"`, 365, false},
		{`"23:59"`, 1439, false},
		{`"00:00"`, 0, false},
		{`420`, 420, false},
		{`"24:00"`, 0, true},
		{`"12:60"`, 0, true},
		{`"12:5"`, 0, true},
		{`"noon"`, 0, true},
		{`1440`, 0, true},
		{`-1`, 0, true},
		{`12.5`, 0, true},
		{`true`, 0, true},
		{`null`, 0, true},
		{``, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMinute(json.RawMessage(tc.in))
			if tc.wantErr {
				assert.ErrorIs(t, err, errInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatMinute(t *testing.T) {
	assert.Equal(t, "06:00", FormatMinute(360))
	assert.Equal(t, "23:59", FormatMinute(1439))
	assert.Equal(t, "00:00", FormatMinute(1440))
}

func TestParseChannel(t *testing.T) {
	for _, in := range []string{"0", "1", "2", "3"} {
		_, err := ParseChannel(json.RawMessage(in))
		assert.NoError(t, err, in)
	}
	for _, in := range []string{"4", "-1", `"2"`, "1.5", "null", " null ", "true", ""} {
		_, err := ParseChannel(json.RawMessage(in))
		assert.ErrorIs(t, err, errInvalidOption, in)
	}
}

func TestHandler_NotificationPreferences(t *testing.T) {
	r, svc := newRouter(t)
	sub := testutil.CreateSubscriber(t, svc.db, testutil.WithChannel(models.ChannelBoth))
	auth := testutil.Bearer(t, sub)

	w := testutil.Do(r, http.MethodPost, "/preferences/notification-preferences", map[string]int{"option": 1}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.ChannelTelegram, testutil.Reload(t, svc.db, sub.ID).NotificationPreferences)

	for _, body := range []interface{}{
		map[string]int{"option": 4},
		map[string]int{"option": -1},
		map[string]string{"option": "0"},
		map[string]interface{}{"option": nil},
		json.RawMessage(`{"option":null}`),
		nil,
	} {
		w = testutil.Do(r, http.MethodPost, "/preferences/notification-preferences", body, auth)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Equal(t, models.ChannelTelegram, testutil.Reload(t, svc.db, sub.ID).NotificationPreferences)
}

func TestHandler_ToggleProbable(t *testing.T) {
	r, svc := newRouter(t)
	sub := testutil.CreateSubscriber(t, svc.db)
	auth := testutil.Bearer(t, sub)

	w := testutil.Do(r, http.MethodPost, "/preferences/toggle-probable-notifications", nil, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, testutil.Decode(t, w)["include_similar_tags"])

	w = testutil.Do(r, http.MethodPost, "/preferences/toggle-probable-notifications", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, testutil.Decode(t, w)["include_similar_tags"])
	assert.False(t, testutil.Reload(t, svc.db, sub.ID).IncludeSimilarTags)

	_, err := svc.ToggleSimilar(context.Background(), "missing")
	assert.ErrorIs(t, err, errNotFound)
}

func TestHandler_NotificationTime(t *testing.T) {
	r, svc := newRouter(t)
	sub := testutil.CreateSubscriber(t, svc.db)
	auth := testutil.Bearer(t, sub)

	w := testutil.Do(r, http.MethodPost, "/preferences/notification-time",
		map[string]interface{}{"time": "07:30", "day": true}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := testutil.Reload(t, svc.db, sub.ID)
	assert.Equal(t, 450, got.NotificationTime)
	assert.True(t, got.NotificationDayBefore)

	w = testutil.Do(r, http.MethodPost, "/preferences/notification-time",
		map[string]interface{}{"time": 1200, "day": false}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	got = testutil.Reload(t, svc.db, sub.ID)
	assert.Equal(t, 1200, got.NotificationTime)
	assert.False(t, got.NotificationDayBefore)

	w = testutil.Do(r, http.MethodPost, "/preferences/notification-time",
		map[string]interface{}{"time": "25:00", "day": false}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(r, http.MethodPost, "/preferences/notification-time",
		map[string]interface{}{"time": "08:00"}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1200, testutil.Reload(t, svc.db, sub.ID).NotificationTime)
}
