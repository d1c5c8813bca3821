package service

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// borrowerSplit returns the id of the split borrowed by userID in a bill
// response.
func borrowerSplit(t *testing.T, bill map[string]any, userID int64) int64 {
	t.Helper()
	for _, s := range bill["bill_splits"].([]any) {
		m := s.(map[string]any)
		if id(m["borrow_by"]) == userID {
			return id(m["id"])
		}
	}
	t.Fatalf("no split borrowed by %d", userID)
	return 0
}

func TestPaymentRequestFlow(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register("alice")
	bob := c.register("bob")
	carol := c.register("carol")

	res := c.post("/bill/add", alice.Token, map[string]any{
		"title":            "Groceries",
		"amount":           90,
		"paid_by":          alice.ID,
		"is_split_equally": true,
		"friends":          friends(alice.ID, bob.ID, carol.ID),
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	bill := res.data()
	billID := id(bill["id"])
	bobSplit := borrowerSplit(t, bill, bob.ID)
	carolSplit := borrowerSplit(t, bill, carol.ID)

	request := func(u testUser, splitID, to int64) result {
		return c.post("/payment/request", u.Token, map[string]any{
			"payment_status_id": 1,
			"bill_split_id":     splitID,
			"from_user_id":      u.ID,
			"to_user_id":        to,
			"amount":            30,
		})
	}

	t.Run("request checks the split parties", func(t *testing.T) {
		res := request(bob, bobSplit, carol.ID)
		assert.Equal(t, http.StatusNotAcceptable, res.Code)
		assert.Equal(t, []string{"to_user_id"}, res.errorKeys())

		res = request(bob, carolSplit, alice.ID)
		assert.Equal(t, http.StatusNotAcceptable, res.Code)
		assert.Equal(t, []string{"from_user_id"}, res.errorKeys())

		res = c.post("/payment/request", carol.Token, map[string]any{
			"payment_status_id": 1, "bill_split_id": bobSplit,
			"from_user_id": bob.ID, "to_user_id": alice.ID, "amount": 30,
		})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Unauthorised User", res.Body["error"])
	})

	var requestID int64
	t.Run("request", func(t *testing.T) {
		res := request(bob, bobSplit, alice.ID)
		require.Equal(t, http.StatusOK, res.Code, res.Body)
		assert.Equal(t, "Successfully Added.", res.Body["message"])
		requestID = id(res.data()["id"])

		res = request(bob, bobSplit, alice.ID)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Payment request already created.", res.Body["error"])
	})

	t.Run("lists expand the other party", func(t *testing.T) {
		res := c.get("/payment/request/receiverlist", alice.Token)
		require.Equal(t, http.StatusOK, res.Code)
		rows := res.list()
		require.Len(t, rows, 1)
		row := rows[0].(map[string]any)
		assert.Equal(t, "Groceries", row["title"])
		assert.Equal(t, float64(bob.ID), row["from_user_id"].(map[string]any)["id"])
		assert.Equal(t, float64(bobSplit), row["bill_split"].(map[string]any)["id"])

		res = c.get("/payment/request/senderlist", bob.Token)
		require.Equal(t, http.StatusOK, res.Code)
		require.Len(t, res.list(), 1)
		assert.Equal(t, float64(alice.ID), res.list()[0].(map[string]any)["to_user_id"].(map[string]any)["id"])

		res = c.get("/payment/request/senderlist", carol.Token)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Empty(t, res.list())
	})

	t.Run("only the receiver accepts", func(t *testing.T) {
		res := c.post("/payment-request/accept/createbill", bob.Token, map[string]any{"id": requestID})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Unauthorised User", res.Body["error"])
	})

	t.Run("accept records a settlement", func(t *testing.T) {
		res := c.post("/payment-request/accept/createbill", alice.Token, map[string]any{"id": requestID})
		require.Equal(t, http.StatusOK, res.Code, res.Body)
		settlement := res.data()
		assert.Equal(t, float64(bob.ID), settlement["paid_by"])
		assert.Equal(t, float64(alice.ID), settlement["created_by"])
		assert.Nil(t, settlement["group_id"])
		assert.Equal(t, "Paid", settlement["status"])

		res = c.get(fmt.Sprintf("/v2/billDetails/byBillId?bill_id=%d", billID), alice.Token)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, float64(30), res.data()["total_received_amount"])

		res = c.post("/payment-request/accept/createbill", alice.Token, map[string]any{"id": requestID})
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "No data found", res.Body["error"])
	})

	t.Run("settlements stay out of bill listings", func(t *testing.T) {
		res := c.get("/v2/bill/hostedby", bob.Token)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "No data found", res.Body["message"])
	})

	t.Run("reject allows a new request", func(t *testing.T) {
		res := request(carol, carolSplit, alice.ID)
		require.Equal(t, http.StatusOK, res.Code, res.Body)
		rejected := id(res.data()["id"])

		res = c.post("/payment-request/reject", alice.Token, map[string]any{"id": rejected})
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "Payment request rejected successfully.", res.Body["message"])

		res = request(carol, carolSplit, alice.ID)
		assert.Equal(t, http.StatusOK, res.Code)
	})
}

func TestFriendBalances(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register("alice")
	bob := c.register("bob")
	carol := c.register("carol")
	dave := c.register("dave")

	for _, payer := range []testUser{alice, bob} {
		res := c.post("/bill/add", payer.Token, map[string]any{
			"title":            "Round by " + fmt.Sprint(payer.ID),
			"amount":           60,
			"paid_by":          payer.ID,
			"is_split_equally": true,
			"friends":          friends(alice.ID, bob.ID, carol.ID),
		})
		require.Equal(t, http.StatusOK, res.Code, res.Body)
	}

	balances := func(t *testing.T, query string) map[int64]map[string]any {
		t.Helper()
		res := c.get("/v2/friendlist/remainingpayments"+query, alice.Token)
		out := map[int64]map[string]any{}
		if res.Code == http.StatusBadRequest {
			assert.Equal(t, "No data found", res.Body["message"])
			return out
		}
		require.Equal(t, http.StatusOK, res.Code, res.Body)
		assert.Equal(t, "Data Found Successfully", res.Body["message"])
		for _, row := range res.list() {
			m := row.(map[string]any)
			out[id(m["id"])] = m
		}
		return out
	}

	t.Run("all friends", func(t *testing.T) {
		got := balances(t, "")
		require.Len(t, got, 2)
		assert.NotContains(t, got, dave.ID)
		assert.Equal(t, float64(0), got[bob.ID]["difference_amount"])
		assert.Equal(t, "Settled", got[bob.ID]["status"])
		assert.Equal(t, float64(20), got[carol.ID]["difference_amount"])
		assert.Equal(t, "You will receive", got[carol.ID]["status"])
	})

	tests := []struct {
		filter int
		want   []int64
	}{
		{1, []int64{carol.ID}},
		{2, nil},
		{3, []int64{bob.ID}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("filter %d", tt.filter), func(t *testing.T) {
			got := balances(t, fmt.Sprintf("?filter=%d", tt.filter))
			var ids []int64
			for k := range got {
				ids = append(ids, k)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}

	t.Run("filter out of range", func(t *testing.T) {
		res := c.get("/v2/friendlist/remainingpayments?filter=4", alice.Token)
		assert.Equal(t, http.StatusNotAcceptable, res.Code)
		assert.Equal(t, []string{"filter"}, res.errorKeys())
	})

	t.Run("history with a friend", func(t *testing.T) {
		res := c.get(fmt.Sprintf("/v2/billList/history/friend?id=%d", bob.ID), alice.Token)
		require.Equal(t, http.StatusOK, res.Code, res.Body)
		bills := res.list()
		require.Len(t, bills, 2)

		assert.Equal(t, "Data Found Successfully", res.Body["message"])

		newest := bills[0].(map[string]any)
		payer := newest["paid_by"].(map[string]any)
		assert.Equal(t, float64(bob.ID), payer["id"])
		assert.Equal(t, "bob Tester", payer["contact_name"])
		assert.Equal(t, "Round by "+fmt.Sprint(bob.ID), newest["title"])
		assert.NotZero(t, newest["bill_id"])
		assert.Equal(t, float64(60), newest["total_amount"])
		assert.Equal(t, float64(20), newest["amount"])
		assert.Equal(t, float64(-20), newest["difference_amount"])
		assert.Equal(t, "Pending", newest["status"])

		friend := res.Body["friend"].(map[string]any)
		assert.Equal(t, float64(0), friend["difference_amount"])
		assert.Equal(t, "Settled", friend["status"])
	})

	t.Run("nothing to report", func(t *testing.T) {
		res := c.get("/v2/friendlist/remainingpayments?page=1", dave.Token)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "No data found", res.Body["message"])

		res = c.get(fmt.Sprintf("/v2/billList/history/friend?id=%d&page=1", alice.ID), dave.Token)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "No data found", res.Body["message"])
	})
}
