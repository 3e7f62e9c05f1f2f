package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/geom"
	"github.com/beltline/beltline/pkg/pipeline"
	"github.com/beltline/beltline/pkg/plan"
)

func testGame() *game.GameDefinition {
	return &game.GameDefinition{
		ID: "testgame", Name: "Test Game", Version: "1.0.0",
		Items: []game.Item{
			{ID: "iron-ore", Name: "Iron Ore", Category: game.ItemOre, StackSize: 100},
			{ID: "iron-ingot", Name: "Iron Ingot", Category: game.ItemIngot, StackSize: 100},
			{ID: "gear", Name: "Gear", Category: game.ItemComponent, StackSize: 100},
		},
		Recipes: []game.Recipe{
			{
				ID: "smelt-iron", Name: "Iron Smelting", MachineID: "smelter-1",
				Inputs:       []game.RecipeItem{{ItemID: "iron-ore", Amount: 1}},
				Outputs:      []game.RecipeItem{{ItemID: "iron-ingot", Amount: 1}},
				CraftingTime: 1, Category: game.RecipeSmelting,
			},
			{
				ID: "make-gear", Name: "Gear Assembly", MachineID: "assembler-1",
				Inputs:       []game.RecipeItem{{ItemID: "iron-ingot", Amount: 1}},
				Outputs:      []game.RecipeItem{{ItemID: "gear", Amount: 1}},
				CraftingTime: 1, Category: game.RecipeAssembling,
			},
		},
		Machines: []game.Machine{
			{ID: "smelter-1", Name: "Smelter", Category: game.MachineSmelter, Speed: 1, Width: 3, Height: 3},
			{ID: "assembler-1", Name: "Assembler", Category: game.MachineAssembler, Speed: 1, Width: 3, Height: 3},
		},
		Belts: []game.BeltTier{
			{ID: "belt-1", Name: "Belt Mk1", Tier: 1, ItemsPerSecond: 6},
		},
		Settings: game.Settings{RateUnit: game.RatePerMinute, LanesPerBelt: 1, GridSize: 20},
	}
}

func testLayoutJSON(t *testing.T, g *game.GameDefinition) json.RawMessage {
	t.Helper()
	p := &plan.Plan{ID: "api-test"}
	producer, err := plan.NewBlockNode(g, "smelt-iron", geom.Point{X: 0, Y: 0}, 60)
	if err != nil {
		t.Fatal(err)
	}
	consumer, err := plan.NewBlockNode(g, "make-gear", geom.Point{X: 600, Y: 0}, 60)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []*plan.Node{producer, consumer} {
		if err := p.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := plan.Connect(p, g, producer.ID, producer.Outputs[0].ID, consumer.ID, consumer.Inputs[0].ID); err != nil {
		t.Fatal(err)
	}
	data, err := plan.Export(p)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := NewServer(pipeline.NewRunner(nil, nil, logger), logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, env
}

func TestHealthEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if !env.Success {
		t.Errorf("health envelope = %+v", env)
	}
}

func TestSolveEndpoint(t *testing.T) {
	ts := testServer(t)
	g := testGame()
	gameJSON, err := game.Export(g)
	if err != nil {
		t.Fatal(err)
	}

	resp, env := postJSON(t, ts.URL+"/api/solve", map[string]interface{}{
		"game":    json.RawMessage(gameJSON),
		"layout":  testLayoutJSON(t, g),
		"options": map[string]interface{}{"skipRouting": true},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, env = %+v", resp.StatusCode, env)
	}
	if !env.Success {
		t.Fatalf("error = %q", env.Error)
	}

	data, err := json.Marshal(env.Data)
	if err != nil {
		t.Fatal(err)
	}
	var sr solveResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		t.Fatal(err)
	}
	if sr.NodeCount != 2 || sr.EdgeCount != 1 || !sr.Converged {
		t.Errorf("solve response = %+v", sr)
	}
	if len(sr.Plan.Edges) != 1 || sr.Plan.Edges[0].FlowRate != 60 {
		t.Errorf("solved edges = %+v", sr.Plan.Edges)
	}
}

func TestSolveEndpointRejectsBadInput(t *testing.T) {
	ts := testServer(t)
	g := testGame()
	gameJSON, _ := game.Export(g)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{"missing layout", map[string]interface{}{"game": json.RawMessage(gameJSON)}, http.StatusBadRequest},
		{"missing game", map[string]interface{}{"layout": testLayoutJSON(t, g)}, http.StatusBadRequest},
		{"malformed game", map[string]interface{}{
			"game":   json.RawMessage(`{"id": 42}`),
			"layout": testLayoutJSON(t, g),
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := postJSON(t, ts.URL+"/api/solve", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if env.Success || env.Error == "" {
				t.Errorf("envelope = %+v, want failure with message", env)
			}
		})
	}
}

func TestSolveEndpointRejectsWrongContentType(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/solve", "text/plain", strings.NewReader("hi"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestValidateEndpoint(t *testing.T) {
	ts := testServer(t)
	g := testGame()
	// A recipe pointing at a machine the catalog lacks is advisory, not fatal.
	g.Recipes[0].MachineID = "missing-machine"
	gameJSON, err := game.Export(g)
	if err != nil {
		t.Fatal(err)
	}

	resp, env := postJSON(t, ts.URL+"/api/validate", map[string]interface{}{
		"game": json.RawMessage(gameJSON),
	})
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, env = %+v", resp.StatusCode, env)
	}

	data, _ := json.Marshal(env.Data)
	var vr validateResponse
	if err := json.Unmarshal(data, &vr); err != nil {
		t.Fatal(err)
	}
	if len(vr.Issues) == 0 {
		t.Error("expected consistency issues for missing machine reference")
	}
}

func TestValidateEndpointRejectsMalformed(t *testing.T) {
	ts := testServer(t)

	resp, env := postJSON(t, ts.URL+"/api/validate", map[string]interface{}{
		"game": json.RawMessage(`{"id": 42}`),
	})
	if resp.StatusCode != http.StatusBadRequest || env.Success {
		t.Errorf("status = %d, env = %+v", resp.StatusCode, env)
	}

	resp, env = postJSON(t, ts.URL+"/api/validate", map[string]interface{}{})
	if resp.StatusCode != http.StatusBadRequest || env.Success {
		t.Errorf("empty body: status = %d, env = %+v", resp.StatusCode, env)
	}
}

func TestLiveEndpoint(t *testing.T) {
	ts := testServer(t)
	g := testGame()
	gameJSON, err := game.Export(g)
	if err != nil {
		t.Fatal(err)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req := map[string]interface{}{
		"game":    json.RawMessage(gameJSON),
		"layout":  testLayoutJSON(t, g),
		"options": map[string]interface{}{"skipRouting": true},
	}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	var result liveResult
	if err := conn.ReadJSON(&result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.Data == nil {
		t.Fatalf("live result = %+v", result)
	}
	if result.Data.EdgeCount != 1 || !result.Data.Converged {
		t.Errorf("live solve = %+v", result.Data)
	}

	// A bad message gets an error reply, not a closed connection.
	if err := conn.WriteJSON(map[string]interface{}{"layout": testLayoutJSON(t, g)}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&result); err != nil {
		t.Fatal(err)
	}
	if result.Success || result.Error == "" {
		t.Errorf("bad message result = %+v", result)
	}
}
