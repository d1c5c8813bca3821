package service

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createGroup(t *testing.T, c *apiClient, owner testUser, name string, members ...int64) int64 {
	t.Helper()
	res := c.post("/group/create", owner.Token, map[string]any{
		"name":          name,
		"group_type_id": 1,
		"members":       friends(members...),
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	return id(res.data()["id"])
}

func TestCreateGroup(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register("alice")
	bob := c.register("bob")

	res := c.post("/group/create", alice.Token, map[string]any{
		"name":          "Roommates",
		"group_type_id": 1,
		"members":       friends(bob.ID),
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, "Group created successfully.", res.Body["message"])
	assert.Equal(t, testImage, res.data()["image_url"])
	assert.Len(t, res.data()["members"], 2)

	t.Run("validation", func(t *testing.T) {
		res := c.post("/group/create", alice.Token, map[string]any{
			"name":          "Trip",
			"group_type_id": 99,
			"members":       friends(bob.ID, 404),
		})
		assert.Equal(t, http.StatusNotAcceptable, res.Code)
		assert.ElementsMatch(t, []string{"group_type_id", "members.1.user_id"}, res.errorKeys())
	})

	t.Run("types", func(t *testing.T) {
		res := c.get("/group/types", alice.Token)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Len(t, res.list(), 4)
	})
}

func TestGroupMembership(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register("alice")
	bob := c.register("bob")
	carol := c.register("carol")
	groupID := createGroup(t, c, alice, "Flat", bob.ID)

	t.Run("only admins add users", func(t *testing.T) {
		res := c.post("/group/user/add", bob.Token, map[string]any{
			"group_id": groupID, "user_list": friends(carol.ID),
		})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Only a group admin can do this.", res.Body["error"])
	})

	t.Run("add skips current members", func(t *testing.T) {
		res := c.post("/group/user/add", alice.Token, map[string]any{
			"group_id": groupID, "user_list": friends(bob.ID, carol.ID),
		})
		require.Equal(t, http.StatusOK, res.Code)
		assert.Len(t, res.data()["members"], 3)

		res = c.post("/group/user/add", alice.Token, map[string]any{
			"group_id": groupID, "user_list": friends(carol.ID),
		})
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "Request Success", res.Body["message"])
	})

	t.Run("outsiders are refused", func(t *testing.T) {
		dave := c.register("dave")
		res := c.get(fmt.Sprintf("/group/user/listofUser?group_id=%d", groupID), dave.Token)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "You are not a member of this group.", res.Body["error"])
	})

	t.Run("leave", func(t *testing.T) {
		res := c.do(http.MethodDelete, "/group/user/leave", carol.Token, map[string]any{"group_id": groupID})
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "Group left successfully.", res.Body["message"])
	})

	t.Run("last admin leaving hands over admin", func(t *testing.T) {
		res := c.do(http.MethodDelete, "/group/user/leave", alice.Token, map[string]any{"group_id": groupID})
		require.Equal(t, http.StatusOK, res.Code, res.Body)

		res = c.post("/group/user/add", bob.Token, map[string]any{
			"group_id": groupID, "user_list": friends(carol.ID),
		})
		require.Equal(t, http.StatusOK, res.Code, res.Body)
		assert.Len(t, res.data()["members"], 2)
	})
}

func TestGroupBalances(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register("alice")
	bob := c.register("bob")
	carol := c.register("carol")
	groupID := createGroup(t, c, alice, "Trip", bob.ID, carol.ID)

	res := c.get(fmt.Sprintf("/bill/list/byGroup?group_id=%d", groupID), bob.Token)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "No data found", res.Body["message"])

	res = c.post("/bill/add", alice.Token, map[string]any{
		"title":            "Hotel",
		"amount":           90,
		"paid_by":          alice.ID,
		"is_split_equally": true,
		"friends":          friends(alice.ID, bob.ID, carol.ID),
		"group_id":         groupID,
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	t.Run("group list shows pending amounts", func(t *testing.T) {
		res := c.get("/group/user/listofGroup", bob.Token)
		require.Equal(t, http.StatusOK, res.Code)
		groups := res.list()
		require.Len(t, groups, 1)

		g := groups[0].(map[string]any)
		assert.Equal(t, "Pending", g["bill_status"])
		assert.Equal(t, float64(1), g["total_bill_count"])
		bill := g["bills"].([]any)[0].(map[string]any)
		assert.Equal(t, float64(60), bill["amount"])
	})

	t.Run("member balances", func(t *testing.T) {
		res := c.get(fmt.Sprintf("/group/user/listofUser?group_id=%d", groupID), alice.Token)
		require.Equal(t, http.StatusOK, res.Code)

		byID := map[int64]map[string]any{}
		for _, m := range res.list() {
			row := m.(map[string]any)
			byID[id(row["id"])] = row
		}
		require.Len(t, byID, 3)
		assert.Equal(t, float64(60), byID[alice.ID]["total_remaining_amount"])
		assert.Equal(t, "You will receive", byID[alice.ID]["status"])
		assert.Equal(t, float64(-30), byID[bob.ID]["total_remaining_amount"])
		assert.Equal(t, "You need to pay", byID[bob.ID]["status"])
	})

	t.Run("group balance of the caller", func(t *testing.T) {
		res := c.get(fmt.Sprintf("/bill/list/byGroup?group_id=%d", groupID), bob.Token)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, float64(-30), res.Body["group_balance"])
		assert.Len(t, res.list(), 1)
	})

	t.Run("pending members cannot leave or be removed", func(t *testing.T) {
		res := c.do(http.MethodDelete, "/group/user/leave", bob.Token, map[string]any{"group_id": groupID})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "User has pending transactions.", res.Body["error"])

		res = c.do(http.MethodDelete, "/group/user/remove", alice.Token, map[string]any{
			"group_id": groupID, "user_list": friends(bob.ID),
		})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		failures := res.Body["error"].([]any)
		require.Len(t, failures, 1)
		assert.Equal(t, "User has pending transactions.", failures[0].(map[string]any)["error"])
	})

	t.Run("group with pending bills cannot be deleted", func(t *testing.T) {
		res := c.do(http.MethodDelete, "/group/delete", alice.Token, map[string]any{"group_id": groupID})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Group has pending bills.", res.Body["error"])
	})

	t.Run("user_id must be the caller", func(t *testing.T) {
		res := c.get(fmt.Sprintf("/group/user/listofGroup?user_id=%d", alice.ID), bob.Token)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestGroupListPagination(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register("alice")
	bob := c.register("bob")
	createGroup(t, c, alice, "One", bob.ID)
	createGroup(t, c, alice, "Two", bob.ID)

	res := c.get("/group/user/listofGroup?page=1&limit=1", alice.Token)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.list(), 1)
	assert.Equal(t, float64(2), res.Body["total"])
	assert.Equal(t, float64(1), res.Body["per_page"])
	assert.NotNil(t, res.Body["next_page_url"])

	res = c.get("/group/user/listofGroup", alice.Token)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.list(), 2)
	assert.NotContains(t, res.Body, "total")
}
