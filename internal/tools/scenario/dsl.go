// Package scenario runs Lua-scripted matches against an in-process match
// service. Scripts build a Scenario with a chainable DSL and return it; the
// Runner then replays the steps and checks the expectations inline.
package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is a parsed script: a name and an ordered step list.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted action or expectation.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile parses a Lua scenario script. The script must return
// the Scenario it built.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "match", Function: scenarioMatch},
	{Name: "shot", Function: scenarioShot},
	{Name: "bounce", Function: scenarioBounce},
	{Name: "grenade", Function: scenarioGrenade},
	{Name: "undo", Function: scenarioUndo},
	{Name: "play_on", Function: scenarioPlayOn},
	{Name: "redemption_win", Function: scenarioRedemptionWin},
	{Name: "surrender", Function: scenarioSurrender},
	{Name: "rerack", Function: scenarioRerack},
	{Name: "expect_remaining", Function: scenarioExpectRemaining},
	{Name: "expect_phase", Function: scenarioExpectPhase},
	{Name: "expect_undo", Function: scenarioExpectUndo},
}

func scenarioMatch(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if _, ok := data["side_a"]; !ok {
		lua.Errorf(state, "match side_a players are required")
		return 0
	}
	if _, ok := data["side_b"]; !ok {
		lua.Errorf(state, "match side_b players are required")
		return 0
	}
	appendStep(scenario, "match", data)
	return 0
}

func scenarioShot(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	requireShotTarget(state, data, "shot")
	appendStep(scenario, "shot", data)
	return 0
}

func scenarioBounce(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	requireShotTarget(state, data, "bounce")
	if _, ok := data["second"]; !ok {
		lua.Errorf(state, "bounce second cup is required")
		return 0
	}
	appendStep(scenario, "bounce", data)
	return 0
}

func scenarioGrenade(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	requireShotTarget(state, data, "grenade")
	appendStep(scenario, "grenade", data)
	return 0
}

func scenarioUndo(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "undo", nil)
	return 0
}

func scenarioPlayOn(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "play_on", nil)
	return 0
}

func scenarioRedemptionWin(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "redemption_win", nil)
	return 0
}

func scenarioSurrender(state *lua.State) int {
	scenario := checkScenario(state)
	side := lua.CheckString(state, 2)
	appendStep(scenario, "surrender", map[string]any{"side": side})
	return 0
}

func scenarioRerack(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if _, ok := data["side"]; !ok {
		lua.Errorf(state, "rerack side is required")
		return 0
	}
	appendStep(scenario, "rerack", data)
	return 0
}

func scenarioExpectRemaining(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if _, okA := data["a"]; !okA {
		if _, okB := data["b"]; !okB {
			lua.Errorf(state, "expect_remaining needs a or b")
			return 0
		}
	}
	appendStep(scenario, "expect_remaining", data)
	return 0
}

func scenarioExpectPhase(state *lua.State) int {
	scenario := checkScenario(state)
	phase := lua.CheckString(state, 2)
	appendStep(scenario, "expect_phase", map[string]any{"phase": phase})
	return 0
}

func scenarioExpectUndo(state *lua.State) int {
	scenario := checkScenario(state)
	available := state.ToBoolean(2)
	appendStep(scenario, "expect_undo", map[string]any{"available": available})
	return 0
}

func requireShotTarget(state *lua.State, data map[string]any, kind string) {
	if _, ok := data["side"]; !ok {
		lua.Errorf(state, "%s side is required", kind)
	}
	if _, ok := data["cup"]; !ok {
		lua.Errorf(state, "%s cup is required", kind)
	}
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) int {
	if scenario == nil {
		return -1
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
	return len(scenario.Steps) - 1
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo converts a table to []any when its keys are a dense 1..n run,
// and to map[string]any otherwise.
func tableToGo(state *lua.State, index int) any {
	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count == maxIndex {
		items := make([]any, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			items[i-1] = luaToGo(state, -1)
			state.Pop(1)
		}
		return items
	}
	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if value == math.Trunc(value) {
		return int(value)
	}
	return value
}
