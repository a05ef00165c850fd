package api

import (
	"cmp"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/talgya/hexwar/internal/actuator"
	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/profile"
	"github.com/talgya/hexwar/internal/world"
)

// Views

type unitView struct {
	army.UnitSpec
	Kind     string `json:"kind"`
	MaxSteps int    `json:"maxSteps"`
	Leader   bool   `json:"leader"`
}

func viewUnit(u *army.Unit) unitView {
	return unitView{
		UnitSpec: u.ToSpec(),
		Kind:     u.Kind().String(),
		MaxSteps: u.Type().MaxSteps(),
		Leader:   u.Wing().IsLeader(u),
	}
}

type hexView struct {
	Q       int    `json:"q"`
	R       int    `json:"r"`
	Terrain string `json:"terrain"`
	Height  int    `json:"height"`
}

// sideView carries the direction from A to B as Angle.
type sideView struct {
	A     world.HexCoord `json:"a"`
	B     world.HexCoord `json:"b"`
	Edge  string         `json:"edge"`
	Angle int            `json:"angle"`
}

type moveView struct {
	Locomotion     string  `json:"locomotion"`
	Capacity       string  `json:"capacity"`
	MovementPoints float64 `json:"movementPoints"`
	Extended       float64 `json:"extendedMovementPoints"`
}

type weaponView struct {
	Kind     string `json:"kind"`
	Capacity string `json:"capacity"`
	Attack   int    `json:"attack"`
	Defense  int    `json:"defense"`
	Strength int    `json:"strength"`
	Range    int    `json:"range"`
}

type ratingView struct {
	Kind     string `json:"kind,omitempty"`
	Capacity string `json:"capacity"`
	Level    int    `json:"level"`
}

type levelView struct {
	Steps   int         `json:"steps"`
	Move    moveView    `json:"move"`
	Weapon  *weaponView `json:"weapon,omitempty"`
	Command *ratingView `json:"command,omitempty"`
	Moral   *ratingView `json:"moral,omitempty"`
	Magic   *ratingView `json:"magic,omitempty"`
}

type unitTypeView struct {
	Name           string      `json:"name"`
	Kind           string      `json:"kind"`
	MaxSteps       int         `json:"maxSteps"`
	Character      bool        `json:"character"`
	TroopPaths     []string    `json:"troopPaths,omitempty"`
	FormationPaths []string    `json:"formationPaths,omitempty"`
	Levels         []levelView `json:"levels"`
}

func viewProfiles(steps int, p profile.Profiles) levelView {
	lv := levelView{Steps: steps, Move: moveView{
		Locomotion:     p.Move.Locomotion().String(),
		Capacity:       p.Move.Capacity().String(),
		MovementPoints: p.Move.MovementPoints(),
		Extended:       p.Move.ExtendedMovementPoints(),
	}}
	if w := p.Weapon; w != nil {
		lv.Weapon = &weaponView{Kind: w.Kind().String(), Capacity: w.Capacity().String(),
			Attack: w.Attack(), Defense: w.Defense(), Strength: w.Strength(), Range: w.Range()}
	}
	if c := p.Command; c != nil {
		lv.Command = &ratingView{Kind: c.Kind().String(), Capacity: c.Capacity().String(), Level: c.CommandLevel()}
	}
	if m := p.Moral; m != nil {
		lv.Moral = &ratingView{Kind: m.Kind().String(), Capacity: m.Capacity().String(), Level: m.MoralLevel()}
	}
	if m := p.Magic; m != nil {
		lv.Magic = &ratingView{Capacity: m.Capacity().String(), Level: m.ArtLevel()}
	}
	return lv
}

func viewUnitType(t *army.UnitType) unitTypeView {
	v := unitTypeView{
		Name:           t.Name(),
		Kind:           t.Kind().String(),
		MaxSteps:       t.MaxSteps(),
		Character:      t.IsCharacter(),
		TroopPaths:     t.TroopPaths(),
		FormationPaths: t.FormationPaths(),
	}
	for steps := 1; steps <= t.MaxSteps(); steps++ {
		v.Levels = append(v.Levels, viewProfiles(steps, t.Profiles(steps)))
	}
	return v
}

// Request bodies

// targetReq addresses a hex, or with Side set the side between (q,r) and
// (q2,r2).
type targetReq struct {
	Q    int  `json:"q"`
	R    int  `json:"r"`
	Side bool `json:"side,omitempty"`
	Q2   int  `json:"q2,omitempty"`
	R2   int  `json:"r2,omitempty"`
}

func (t targetReq) target() actuator.Target {
	a := world.HexCoord{Q: t.Q, R: t.R}
	if t.Side {
		return actuator.SideTarget(a, world.HexCoord{Q: t.Q2, R: t.R2})
	}
	return actuator.HexTarget(a)
}

// facingReq gives a facing either explicitly or as a screen pointer.
type facingReq struct {
	Angle   *int         `json:"angle,omitempty"`
	Pointer *world.Point `json:"pointer,omitempty"`
}

func (f facingReq) check() error {
	if (f.Angle == nil) == (f.Pointer == nil) {
		return errors.New("exactly one of angle and pointer is required")
	}
	return nil
}

// Lookups

// unitFor resolves the {id} path variable, writing the error response when it
// fails. Callers hold s.mu.
func (s *Server) unitFor(w http.ResponseWriter, r *http.Request) *army.Unit {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid unit id", http.StatusBadRequest)
		return nil
	}
	u := s.Session.FindUnit(id)
	if u == nil {
		http.Error(w, "unit not found", http.StatusNotFound)
	}
	return u
}

// wingFor resolves the {name} path variable. Callers hold s.mu.
func (s *Server) wingFor(w http.ResponseWriter, r *http.Request) *army.Wing {
	wing := s.Session.Wing(mux.Vars(r)["name"])
	if wing == nil {
		http.Error(w, "wing not found", http.StatusNotFound)
	}
	return wing
}

func parseOrder(name string) (army.OrderInstruction, error) {
	var o army.OrderInstruction
	err := o.UnmarshalText([]byte(name))
	return o, err
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func queryFloat(r *http.Request, key string) (float64, error) {
	return strconv.ParseFloat(r.URL.Query().Get(key), 64)
}

// Read-only handlers

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	units := 0
	for _, wing := range s.Session.Wings() {
		units += wing.Len()
	}
	status := map[string]any{
		"name":        "hexwar",
		"scenario":    s.scenario,
		"radius":      s.Session.Map.Radius,
		"hexes":       s.Session.Map.HexCount(),
		"wings":       len(s.Session.Wings()),
		"units":       units,
		"unit_types":  s.Session.Catalog.Len(),
		"can_undo":    s.Session.CanUndo(),
		"can_redo":    s.Session.CanRedo(),
		"actuating":   s.manager.IsOpen(),
		"stream":      s.hub.count(),
		"persistence": s.DB != nil,
	}
	if sel := s.manager.Selected(); sel != nil {
		status["selected"] = sel.ID().String()
	}
	writeJSON(w, status)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.Session.Map
	hexes := make([]hexView, 0, len(m.Hexes))
	for c, h := range m.Hexes {
		hexes = append(hexes, hexView{Q: c.Q, R: c.R, Terrain: h.Terrain.String(), Height: h.Height})
	}
	slices.SortFunc(hexes, func(a, b hexView) int { return cmp.Or(cmp.Compare(a.Q, b.Q), cmp.Compare(a.R, b.R)) })

	sides := make([]sideView, 0, len(m.Sides))
	for _, sd := range m.Sides {
		sides = append(sides, sideView{A: sd.A, B: sd.B, Edge: sd.Type.String(), Angle: sd.Angle()})
	}
	slices.SortFunc(sides, func(a, b sideView) int {
		return cmp.Or(cmp.Compare(a.A.Q, b.A.Q), cmp.Compare(a.A.R, b.A.R), cmp.Compare(a.B.Q, b.B.Q), cmp.Compare(a.B.R, b.B.R))
	})

	writeJSON(w, map[string]any{
		"radius":   m.Radius,
		"hex_size": s.Layout.Size,
		"hexes":    hexes,
		"sides":    sides,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := s.Session.Catalog.Types()
	out := make([]unitTypeView, 0, len(types))
	for _, t := range types {
		out = append(out, viewUnitType(t))
	}
	writeJSON(w, out)
}

// handleTargets lists where a new unit of ?type= with ?steps= could stand, and
// what standing there costs.
func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.Session.Catalog.Get(r.URL.Query().Get("type"))
	if t == nil {
		http.Error(w, "unknown unit type", http.StatusBadRequest)
		return
	}
	steps, err := queryInt(r, "steps")
	if err != nil {
		http.Error(w, "invalid steps", http.StatusBadRequest)
		return
	}
	if steps == 0 {
		steps = t.MaxSteps()
	}
	// A throwaway wing: nothing is placed.
	act, err := actuator.NewCreationActuator(s.Session, s.Layout, army.NewWing("preview"), t, steps)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, act.Targets())
}

func (s *Server) handleWings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.Session.Specs())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.Session.Events(limit))
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, []persistence.ScenarioInfo{})
		return
	}
	infos, err := s.DB.ListScenarios()
	if err != nil {
		s.logger.Error("list scenarios failed", "error", err)
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	if infos == nil {
		infos = []persistence.ScenarioInfo{}
	}
	writeJSON(w, infos)
}

func (s *Server) handleUnit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.unitFor(w, r); u != nil {
		writeJSON(w, viewUnit(u))
	}
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.unitFor(w, r); u != nil {
		writeJSON(w, s.Session.StatusMenu(u))
	}
}

// handleMoveFeedback prices moving the unit to the target in the query. It
// opens a move actuator for the unit, closing whatever was open.
func (s *Server) handleMoveFeedback(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitFor(w, r)
	if u == nil {
		return
	}
	var t targetReq
	var errs []error
	var err error
	t.Q, err = queryInt(r, "q")
	errs = append(errs, err)
	t.R, err = queryInt(r, "r")
	errs = append(errs, err)
	t.Q2, err = queryInt(r, "q2")
	errs = append(errs, err)
	t.R2, err = queryInt(r, "r2")
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		http.Error(w, "invalid target", http.StatusBadRequest)
		return
	}
	t.Side = r.URL.Query().Get("side") == "true"

	act, err := actuator.NewMoveActuator(s.Session, s.Layout, u)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.manager.Open(u, act)
	writeJSON(w, act.Feedback(t.target()))
}

// handleRotationFeedback returns the facing ?x=&y= selects and its cost.
func (s *Server) handleRotationFeedback(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitFor(w, r)
	if u == nil {
		return
	}
	x, errX := queryFloat(r, "x")
	y, errY := queryFloat(r, "y")
	if errX != nil || errY != nil {
		http.Error(w, "x and y are required", http.StatusBadRequest)
		return
	}
	act, err := actuator.NewRotateActuator(s.Session, s.Layout, u)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.manager.Open(u, act)
	fb, err := act.Feedback(world.Point{X: x, Y: y})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, fb)
}

// Wing handlers

func (s *Server) handleAddWing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Order string `json:"order,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wing, err := s.Session.AddWing(req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Order != "" {
		o, err := parseOrder(req.Order)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Session.ChangeOrderInstruction(wing, o)
	}
	writeCreated(w, wing.ToSpec())
}

func (s *Server) handleRemoveWing(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wing := s.wingFor(w, r)
	if wing == nil {
		return
	}
	if err := s.Session.RemoveWing(wing.Name()); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]any{"removed": wing.Name()})
}

func (s *Server) handleSetLeader(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Unit  string `json:"unit"`
		Order string `json:"order,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wing := s.wingFor(w, r)
	if wing == nil {
		return
	}
	id, err := uuid.Parse(req.Unit)
	if err != nil {
		http.Error(w, "invalid unit id", http.StatusBadRequest)
		return
	}
	u := s.Session.FindUnit(id)
	if u == nil {
		http.Error(w, "unit not found", http.StatusNotFound)
		return
	}
	order := wing.OrderInstruction()
	if req.Order != "" {
		if order, err = parseOrder(req.Order); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if !wing.CanSetLeader(u) {
		http.Error(w, fmt.Sprintf("%s cannot lead wing %s", u.Type().Name(), wing.Name()), http.StatusConflict)
		return
	}
	s.Session.SetLeader(wing, u, order)
	writeJSON(w, wing.ToSpec())
}

func (s *Server) handleDismissLeader(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wing := s.wingFor(w, r)
	if wing == nil {
		return
	}
	s.Session.DismissLeader(wing)
	writeJSON(w, wing.ToSpec())
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order string `json:"order"`
	}
	if !decode(w, r, &req) {
		return
	}
	order, err := parseOrder(req.Order)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wing := s.wingFor(w, r)
	if wing == nil {
		return
	}
	s.Session.ChangeOrderInstruction(wing, order)
	writeJSON(w, wing.ToSpec())
}

func (s *Server) handleWingPlayed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Played bool `json:"played"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wing := s.wingFor(w, r)
	if wing == nil {
		return
	}
	s.Session.SetWingPlayed(wing, req.Played)
	writeJSON(w, wing.ToSpec())
}

// Unit handlers

func (s *Server) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wing  string `json:"wing"`
		Type  string `json:"type"`
		Steps int    `json:"steps,omitempty"`
		targetReq
		facingReq
	}
	if !decode(w, r, &req) {
		return
	}
	if err := req.check(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wing := s.Session.Wing(req.Wing)
	if wing == nil {
		http.Error(w, "wing not found", http.StatusNotFound)
		return
	}
	t := s.Session.Catalog.Get(req.Type)
	if t == nil {
		http.Error(w, "unknown unit type", http.StatusBadRequest)
		return
	}
	steps := req.Steps
	if steps == 0 {
		steps = t.MaxSteps()
	}
	act, err := actuator.NewCreationActuator(s.Session, s.Layout, wing, t, steps)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.manager.Open(nil, act)

	var u *army.Unit
	if req.Angle != nil {
		u, err = act.PlaceFacing(req.target(), *req.Angle)
	} else {
		u, err = act.Place(req.target(), *req.Pointer)
	}
	s.manager.Cancel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeCreated(w, viewUnit(u))
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		targetReq
		facingReq
	}
	if !decode(w, r, &req) {
		return
	}
	if err := req.check(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitFor(w, r)
	if u == nil {
		return
	}
	act, err := actuator.NewMoveActuator(s.Session, s.Layout, u)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.manager.Open(u, act)
	fb := act.Feedback(req.target())
	if req.Angle != nil {
		err = act.CommitFacing(req.target(), *req.Angle)
	} else {
		err = act.Commit(req.target(), *req.Pointer)
	}
	s.manager.Cancel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"unit": viewUnit(u), "cost": fb.Cost, "allowed": fb.Allowed})
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	var req facingReq
	if !decode(w, r, &req) {
		return
	}
	if err := req.check(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitFor(w, r)
	if u == nil {
		return
	}
	act, err := actuator.NewRotateActuator(s.Session, s.Layout, u)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.manager.Open(u, act)
	if req.Angle != nil {
		err = act.CommitFacing(*req.Angle)
	} else {
		err = act.Commit(*req.Pointer)
	}
	s.manager.Cancel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, viewUnit(u))
}

// handleStatusAction applies one status menu action. Disabled actions are
// refused with 409 before anything changes.
func (s *Server) handleStatusAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitFor(w, r)
	if u == nil {
		return
	}
	if err := s.Session.Apply(u, req.Action); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, editor.ErrNotAllowed) {
			code = http.StatusConflict
		}
		http.Error(w, err.Error(), code)
		return
	}
	writeJSON(w, map[string]any{"unit": viewUnit(u), "menu": s.Session.StatusMenu(u)})
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Steps int `json:"steps"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitFor(w, r)
	if u == nil {
		return
	}
	if !u.CanSetSteps(req.Steps) {
		http.Error(w, fmt.Sprintf("%s has steps 1..%d", u.Type().Name(), u.Type().MaxSteps()), http.StatusConflict)
		return
	}
	s.Session.SetSteps(u, req.Steps)
	writeJSON(w, viewUnit(u))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.unitFor(w, r)
	if u == nil {
		return
	}
	if s.manager.Selected() == u {
		s.manager.Cancel()
	}
	s.Session.DeleteFromMap(u)
	writeJSON(w, map[string]any{"removed": u.ID().String()})
}

// Map handlers

func (s *Server) handleSetTerrain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Q       int    `json:"q"`
		R       int    `json:"r"`
		Terrain string `json:"terrain"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := world.ParseTerrain(req.Terrain)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := world.HexCoord{Q: req.Q, R: req.R}
	if err := s.Session.SetTerrain(c, t); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h := s.Session.Map.Get(c)
	writeJSON(w, hexView{Q: c.Q, R: c.R, Terrain: h.Terrain.String(), Height: h.Height})
}

func (s *Server) handleSetEdge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Q    int    `json:"q"`
		R    int    `json:"r"`
		Q2   int    `json:"q2"`
		R2   int    `json:"r2"`
		Edge string `json:"edge"`
	}
	if !decode(w, r, &req) {
		return
	}
	e, err := world.ParseEdgeType(req.Edge)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, b := world.HexCoord{Q: req.Q, R: req.R}, world.HexCoord{Q: req.Q2, R: req.R2}
	if err := s.Session.SetEdge(a, b, e); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"a": a, "b": b, "edge": e.String()})
}

// History handlers

func (s *Server) historyState(changed bool) map[string]any {
	return map[string]any{
		"changed":  changed,
		"can_undo": s.Session.CanUndo(),
		"can_redo": s.Session.CanRedo(),
	}
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager.Cancel()
	writeJSON(w, s.historyState(s.Session.Undo()))
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager.Cancel()
	writeJSON(w, s.historyState(s.Session.Redo()))
}

// handleCancel is the Escape key: it closes every open actuator.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasOpen := s.manager.IsOpen()
	s.manager.HandleKey("Escape")
	writeJSON(w, map[string]any{"cancelled": wasOpen})
}

// Persistence handlers

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	name := req.Name
	if name == "" {
		name = s.scenario
	}
	if name == "" {
		http.Error(w, "scenario name required", http.StatusBadRequest)
		return
	}
	sc := &persistence.Scenario{Name: name, Map: s.Session.Map, Wings: s.Session.Specs()}
	if err := s.DB.SaveScenario(sc); err != nil {
		s.logger.Error("scenario save failed", "name", name, "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	if err := s.DB.SaveEvents(name, s.Session.Events(0)); err != nil {
		s.logger.Warn("event log not saved", "name", name, "error", err)
	}
	if err := s.DB.SaveMeta("last_scenario", name); err != nil {
		s.logger.Warn("last scenario not recorded", "error", err)
	}
	s.scenario = name
	writeJSON(w, map[string]any{"name": name, "wings": len(sc.Wings), "message": "scenario saved"})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	sc, err := s.DB.LoadScenario(req.Name)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("scenario load failed", "name", req.Name, "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}

	history, err := s.DB.History(sc.Name, editor.MaxEvents)
	if err != nil {
		s.logger.Warn("event log not restored", "name", sc.Name, "error", err)
		history = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager.Cancel()
	if err := s.Session.Resume(sc.Map, sc.Wings, history); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.scenario = sc.Name
	if err := s.DB.SaveMeta("last_scenario", sc.Name); err != nil {
		s.logger.Warn("last scenario not recorded", "error", err)
	}
	writeJSON(w, map[string]any{"name": sc.Name, "wings": len(sc.Wings), "radius": sc.Map.Radius})
}
