package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	c := setupTestServer(t)

	alice := c.register("alice")
	assert.NotZero(t, alice.ID)
	assert.NotEmpty(t, alice.Token)

	t.Run("duplicate email and phone", func(t *testing.T) {
		res := c.post("/user/register", "", map[string]any{
			"first_name":       "alice",
			"last_name":        "Again",
			"email":            "alice@example.com",
			"phone":            "9876500001",
			"password":         "secret123",
			"confirm_password": "secret123",
		})
		assert.Equal(t, http.StatusNotAcceptable, res.Code)
		assert.ElementsMatch(t, []string{"email", "phone"}, res.errorKeys())
	})

	t.Run("wrong password", func(t *testing.T) {
		res := c.post("/user/login", "", map[string]any{"email": "alice@example.com", "password": "wrong-one"})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Invalid UserId Password", res.Body["error"])
	})

	t.Run("login by phone", func(t *testing.T) {
		res := c.post("/user/login", "", map[string]any{
			"email":     "9876500001",
			"password":  "secret123",
			"fcm_token": "device-1",
		})
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "device-1", res.data()["fcm_token"])
		assert.NotEmpty(t, res.Body["token"])
	})

	t.Run("profile", func(t *testing.T) {
		res := c.get("/user/profile", alice.Token)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, float64(alice.ID), res.data()["id"])
		assert.Equal(t, testImage, res.data()["image_url"])
		assert.NotContains(t, res.data(), "password")
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		res := c.post("/user/logout", alice.Token, nil)
		require.Equal(t, http.StatusOK, res.Code)

		res = c.get("/user/profile", alice.Token)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})
}

func TestRegisterValidation(t *testing.T) {
	c := setupTestServer(t)

	res := c.post("/user/register", "", map[string]any{
		"email":            "not-an-email",
		"phone":            "123",
		"password":         "secret123",
		"confirm_password": "different",
	})
	assert.Equal(t, http.StatusNotAcceptable, res.Code)
	assert.Equal(t, "Request Failed", res.Body["message"])
	assert.ElementsMatch(t,
		[]string{"first_name", "last_name", "email", "phone", "confirm_password"},
		res.errorKeys())
}

func TestUpdateProfile(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register("alice")
	c.register("bob")

	res := c.post("/user/updateProfile", alice.Token, map[string]any{
		"first_name": "Alicia",
		"last_name":  "Tester",
		"phone":      "9876500002",
	})
	assert.Equal(t, http.StatusNotAcceptable, res.Code)
	assert.Equal(t, []string{"phone"}, res.errorKeys())

	res = c.post("/user/updateProfile", alice.Token, map[string]any{
		"first_name": "Alicia",
		"last_name":  "Tester",
		"phone":      "9876500001",
	})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Alicia", res.data()["first_name"])
}

func TestChangePassword(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register("alice")

	res := c.post("/user/changePassword", alice.Token, map[string]any{
		"current_password": "nope-nope",
		"password":         "newsecret",
		"confirm_password": "newsecret",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = c.post("/user/changePassword", alice.Token, map[string]any{
		"current_password": "secret123",
		"password":         "newsecret",
		"confirm_password": "newsecret",
	})
	require.Equal(t, http.StatusOK, res.Code)

	res = c.post("/user/login", "", map[string]any{"email": "alice@example.com", "password": "newsecret"})
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestDeleteUser(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register("alice")
	bob := c.register("bob")
	carol := c.register("carol")

	res := c.post("/bill/add", alice.Token, map[string]any{
		"title":            "Dinner",
		"amount":           50,
		"paid_by":          alice.ID,
		"is_split_equally": true,
		"friends":          friends(alice.ID, bob.ID),
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	t.Run("blocked by pending splits", func(t *testing.T) {
		res := c.do(http.MethodDelete, "/user/delete", bob.Token, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "User has pending transactions.", res.Body["error"])
	})

	t.Run("soft delete locks the account", func(t *testing.T) {
		res := c.do(http.MethodDelete, "/user/delete", carol.Token, nil)
		require.Equal(t, http.StatusOK, res.Code)

		res = c.post("/user/login", "", map[string]any{"email": "carol@example.com", "password": "secret123"})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Unauthorised User", res.Body["error"])
	})
}
