package profile

import (
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

func TestHandler_Profile(t *testing.T) {
	db := testutil.NewDB(t)
	sub := testutil.CreateSubscriber(t, db, testutil.WithKeywords("4CIIN"))
	r := gin.New()
	NewHandler(NewService(db, nil)).RegisterRoutes(r.Group(""), middleware.Auth())

	w := testutil.Do(r, http.MethodGet, "/profile", nil, testutil.Bearer(t, sub))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := testutil.Decode(t, w)
	assert.Equal(t, "Mario", body["name"])
	assert.Equal(t, "Rossi", body["surname"])
	assert.Equal(t, sub.Email, body["email"])
	assert.Equal(t, "M", body["gender"])
	assert.Equal(t, []interface{}{"4CIIN"}, body["keywords"])
	assert.Equal(t, sub.Telegram, body["telegram"])
	assert.Equal(t, float64(0), body["notifications"])
	assert.Equal(t, float64(models.DefaultChannel), body["notification_preferences"])
	assert.Equal(t, "06:00", body["notification_time"])
	assert.NotContains(t, body, "password")

	w = testutil.Do(r, http.MethodGet, "/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Edit(t *testing.T) {
	db := testutil.NewDB(t)
	sub := testutil.CreateSubscriber(t, db)
	r := gin.New()
	NewHandler(NewService(db, nil)).RegisterRoutes(r.Group(""), middleware.Auth())
	auth := testutil.Bearer(t, sub)

	w := testutil.Do(r, http.MethodPost, "/edit", map[string]string{"name": " Luigi ", "gender": "X"}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := testutil.Reload(t, db, sub.ID)
	assert.Equal(t, "Luigi", got.Name)
	assert.Equal(t, "Rossi", got.Surname)
	assert.Equal(t, models.GenderOther, got.Gender)

	cases := []struct {
		name string
		body interface{}
		msg  string
	}{
		{"no fields", map[string]string{}, "Nessun campo valido fornito!"},
		{"empty surname", map[string]string{"surname": "  "}, "Nome e cognome non possono essere vuoti!"},
		{"bad gender", map[string]string{"gender": "Z"}, "Genere non valido!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := testutil.Do(r, http.MethodPost, "/edit", tc.body, auth)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.msg, testutil.Decode(t, w)["message"])
		})
	}
	assert.Equal(t, "Luigi", testutil.Reload(t, db, sub.ID).Name)
}
