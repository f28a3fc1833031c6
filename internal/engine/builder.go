package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"schoolscheduler/internal/constraint"
	"schoolscheduler/internal/domain"
	"schoolscheduler/internal/sat"
)

type occupancyKey struct {
	owner string
	day   int
	hour  int
}

type attendanceKey struct {
	owner string
	day   int
}

// builder encodes the scheduling problem as a pseudo-boolean instance over
// start variables. Auxiliary indicators (occupancy, attendance) are created
// lazily and always carry full two-way equivalence clauses so the solver can
// never set one spuriously.
type builder struct {
	config      domain.Configuration
	activities  []domain.Activity
	constraints []constraint.Constraint

	days     []time.Weekday
	maxHours int

	indexer  *Indexer
	instance *sat.Instance

	byClass   map[string][]int // activity indices
	byTeacher map[string][]int

	classOccupancy   map[occupancyKey]int
	teacherOccupancy map[occupancyKey]int
	classAttendance  map[attendanceKey]int
	entryOverrides   map[attendanceKey]int

	relaxed  []constraint.Constraint
	warnings []string

	relaxNonMandatory bool
	log               *zap.Logger
	report            func(percentage int, message string)
}

func newBuilder(
	config domain.Configuration,
	activities []domain.Activity,
	constraints []constraint.Constraint,
	relaxNonMandatory bool,
	log *zap.Logger,
	report func(percentage int, message string),
) *builder {
	return &builder{
		config:            config,
		activities:        activities,
		constraints:       constraints,
		days:              config.ActiveDays(),
		maxHours:          config.MaxDailyHours,
		byClass:           groupIndices(activities, func(a domain.Activity) string { return a.ClassName }),
		byTeacher:         groupIndices(activities, func(a domain.Activity) string { return a.TeacherFullName }),
		classOccupancy:    make(map[occupancyKey]int),
		teacherOccupancy:  make(map[occupancyKey]int),
		classAttendance:   make(map[attendanceKey]int),
		entryOverrides:    make(map[attendanceKey]int),
		relaxNonMandatory: relaxNonMandatory,
		log:               log,
		report:            report,
	}
}

func groupIndices(activities []domain.Activity, key func(domain.Activity) string) map[string][]int {
	groups := make(map[string][]int)
	for i, activity := range activities {
		groups[key(activity)] = append(groups[key(activity)], i)
	}
	return groups
}

// buildVariables allocates the start-variable grid.
func (b *builder) buildVariables() error {
	for _, activity := range b.activities {
		if activity.WeeklyHours > b.maxHours {
			return fmt.Errorf("activity %v requires a %v-hour block but days are capped at %v hours",
				activity.Key(), activity.WeeklyHours, b.maxHours)
		}
	}

	lengths := lo.Map(b.activities, func(a domain.Activity, _ int) int { return a.WeeklyHours })
	b.indexer = NewIndexer(lengths, len(b.days), b.maxHours)
	b.instance = sat.NewInstance(b.indexer.Variables())

	b.log.Debug("start variables allocated",
		zap.Int("activities", len(b.activities)),
		zap.Int("variables", b.indexer.Variables()))
	return nil
}

// encode runs the eight constraint families and the user constraint catalog.
func (b *builder) encode() (*sat.Instance, error) {
	b.encodeAssignment()
	b.report(25, "assignment constraints encoded")

	b.encodeTeacherConflicts()
	b.encodeClassConflicts()
	b.report(30, "conflict constraints encoded")

	if err := b.encodeArticulation(); err != nil {
		return nil, err
	}
	b.encodeSpreading()
	b.report(35, "articulation and spreading constraints encoded")

	b.encodeClassDailyBands()
	b.collectEntryOverrides()
	b.encodeFirstHourEntry()
	b.report(40, "class workload constraints encoded")

	b.encodeTeacherDailyBands()
	b.encodeContiguity()
	b.report(45, "teacher workload and contiguity constraints encoded")

	b.encodeUserConstraints()
	b.report(60, "custom constraints encoded")

	b.log.Debug("instance encoded",
		zap.Int("variables", b.instance.Variables),
		zap.Int("clauses", len(b.instance.Clauses)),
		zap.Int("linear", len(b.instance.Linear)))
	return b.instance, nil
}

// startVars returns every start variable of the activity, across all days.
func (b *builder) startVars(activity int) []int {
	vars := make([]int, 0, len(b.days)*b.indexer.StartsPerDay(activity))
	for day := range b.days {
		for start := 1; start <= b.indexer.StartsPerDay(activity); start++ {
			vars = append(vars, b.indexer.Index(activity, day, start))
		}
	}
	return vars
}

// dayStartVars returns the start variables of the activity on one day.
func (b *builder) dayStartVars(activity, day int) []int {
	vars := make([]int, 0, b.indexer.StartsPerDay(activity))
	for start := 1; start <= b.indexer.StartsPerDay(activity); start++ {
		vars = append(vars, b.indexer.Index(activity, day, start))
	}
	return vars
}

// coveringStarts returns the start variables that would place the activity
// over the given hour on the given day.
func (b *builder) coveringStarts(activity, day, hour int) []int {
	length := b.activities[activity].WeeklyHours
	lowest := hour - length + 1
	if lowest < 1 {
		lowest = 1
	}
	highest := hour
	if limit := b.indexer.StartsPerDay(activity); highest > limit {
		highest = limit
	}

	vars := make([]int, 0, highest-lowest+1)
	for start := lowest; start <= highest; start++ {
		vars = append(vars, b.indexer.Index(activity, day, start))
	}
	return vars
}

// occupancyVar materializes an indicator equivalent to "one of the given
// activities covers (day, hour)". Returns 0 when no start can cover the hour,
// which callers treat as constant false.
func (b *builder) occupancyVar(cache map[occupancyKey]int, owner string, indices []int, day, hour int) int {
	key := occupancyKey{owner: owner, day: day, hour: hour}
	if v, ok := cache[key]; ok {
		return v
	}

	var covering []int
	for _, activity := range indices {
		covering = append(covering, b.coveringStarts(activity, day, hour)...)
	}
	if len(covering) == 0 {
		cache[key] = 0
		return 0
	}

	indicator := b.instance.NewVar()
	for _, x := range covering {
		b.instance.AddClause(-x, indicator)
	}
	b.instance.AddClause(append([]int{-indicator}, covering...)...)

	cache[key] = indicator
	return indicator
}

func (b *builder) classOccupancyVar(class string, day, hour int) int {
	return b.occupancyVar(b.classOccupancy, class, b.byClass[class], day, hour)
}

func (b *builder) teacherOccupancyVar(teacher string, day, hour int) int {
	return b.occupancyVar(b.teacherOccupancy, teacher, b.byTeacher[teacher], day, hour)
}

// attendanceVar materializes an indicator equivalent to "the class has any
// lesson on the day".
func (b *builder) attendanceVar(class string, day int) int {
	key := attendanceKey{owner: class, day: day}
	if v, ok := b.classAttendance[key]; ok {
		return v
	}

	var starts []int
	for _, activity := range b.byClass[class] {
		starts = append(starts, b.dayStartVars(activity, day)...)
	}
	if len(starts) == 0 {
		b.classAttendance[key] = 0
		return 0
	}

	indicator := b.instance.NewVar()
	for _, x := range starts {
		b.instance.AddClause(-x, indicator)
	}
	b.instance.AddClause(append([]int{-indicator}, starts...)...)

	b.classAttendance[key] = indicator
	return indicator
}

// Family 1: every activity is placed exactly once.
func (b *builder) encodeAssignment() {
	for activity := range b.activities {
		vars := b.startVars(activity)
		b.instance.AddClause(vars...)
		b.instance.AddLinear(sat.AtMost(vars, 1))
	}
}

// Family 2: a teacher covers at most one lesson per hour.
func (b *builder) encodeTeacherConflicts() {
	for _, teacher := range sortedKeys(b.byTeacher) {
		indices := b.byTeacher[teacher]
		for day := range b.days {
			for hour := 1; hour <= b.maxHours; hour++ {
				var covering []int
				for _, activity := range indices {
					covering = append(covering, b.coveringStarts(activity, day, hour)...)
				}
				if len(covering) > 1 {
					b.instance.AddLinear(sat.AtMost(covering, 1))
				}
			}
		}
	}
}

// Family 3: a class covers at most one lesson per hour, counting only
// activities without an articulation tag. Tagged activities run in parallel
// subgroups and are deliberately excluded.
func (b *builder) encodeClassConflicts() {
	for _, class := range sortedKeys(b.byClass) {
		plain := lo.Filter(b.byClass[class], func(activity int, _ int) bool {
			return !b.activities[activity].IsArticulated()
		})
		for day := range b.days {
			for hour := 1; hour <= b.maxHours; hour++ {
				var covering []int
				for _, activity := range plain {
					covering = append(covering, b.coveringStarts(activity, day, hour)...)
				}
				if len(covering) > 1 {
					b.instance.AddLinear(sat.AtMost(covering, 1))
				}
			}
		}
	}
}

// Family 4: activities sharing a class and articulation tag are pinned to
// identical placements. Groups with unequal block lengths cannot be pinned
// and only produce a warning.
func (b *builder) encodeArticulation() error {
	type groupKey struct {
		class string
		tag   string
	}
	groups := make(map[groupKey][]int)
	for i, activity := range b.activities {
		if activity.IsArticulated() {
			key := groupKey{class: activity.ClassName, tag: activity.ArticulationGroup}
			groups[key] = append(groups[key], i)
		}
	}

	for key, members := range groups {
		if len(members) < 2 {
			continue
		}

		first := members[0]
		uneven := lo.SomeBy(members[1:], func(activity int) bool {
			return b.activities[activity].WeeklyHours != b.activities[first].WeeklyHours
		})
		if uneven {
			b.warn(fmt.Sprintf("articulation group %v in class %v mixes block lengths; subgroups left uncoupled",
				key.tag, key.class))
			continue
		}

		for _, other := range members[1:] {
			for day := range b.days {
				for start := 1; start <= b.indexer.StartsPerDay(first); start++ {
					a := b.indexer.Index(first, day, start)
					c := b.indexer.Index(other, day, start)
					b.instance.AddClause(-a, c)
					b.instance.AddClause(-c, a)
				}
			}
		}
	}
	return nil
}

// Family 5: duplicated (teacher, class, subject) blocks land on distinct days.
func (b *builder) encodeSpreading() {
	groups := make(map[string][]int)
	for i, activity := range b.activities {
		groups[activity.Key()] = append(groups[activity.Key()], i)
	}

	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		for day := range b.days {
			var dayVars []int
			for _, activity := range members {
				dayVars = append(dayVars, b.dayStartVars(activity, day)...)
			}
			if len(dayVars) > 1 {
				b.instance.AddLinear(sat.AtMost(dayVars, 1))
			}
		}
	}
}

// classDayLoad returns the start variables of the class on a day with their
// hour weights.
func (b *builder) classDayLoad(class string, day int) (lits, weights []int) {
	for _, activity := range b.byClass[class] {
		hours := b.activities[activity].WeeklyHours
		for _, v := range b.dayStartVars(activity, day) {
			lits = append(lits, v)
			weights = append(weights, hours)
		}
	}
	return lits, weights
}

// Family 6: on every attended day the class works within [min, max] hours;
// days without attendance contribute zero. The weekly sum is additionally
// pinned to the class's activity total as a redundant consistency constraint.
func (b *builder) encodeClassDailyBands() {
	for _, class := range sortedKeys(b.byClass) {
		min, max := b.config.ClassBounds(class)

		var weekLits, weekWeights []int
		for day := range b.days {
			lits, weights := b.classDayLoad(class, day)
			if len(lits) == 0 {
				continue
			}
			weekLits = append(weekLits, lits...)
			weekWeights = append(weekWeights, weights...)

			b.instance.AddLinear(sat.LtEq(lits, weights, max))

			if min > 0 {
				attends := b.attendanceVar(class, day)
				// attends -> sum >= min, as a weighted big-M implication
				b.instance.AddLinear(sat.GtEq(
					append(append([]int{}, lits...), -attends),
					append(append([]int{}, weights...), min),
					min,
				))
			}
		}

		total := lo.SumBy(b.byClass[class], func(activity int) int {
			return b.activities[activity].WeeklyHours
		})
		if len(weekLits) > 0 {
			for _, constr := range sat.Eq(weekLits, weekWeights, total) {
				b.instance.AddLinear(constr)
			}
		}
	}
}

// collectEntryOverrides folds the hard ClassStartHour constraints into the
// entry-hour family, replacing the configured default for the days they name.
// Encoding them as an independent family would contradict the default.
func (b *builder) collectEntryOverrides() {
	for _, c := range b.constraints {
		start, ok := c.(constraint.ClassStartHour)
		if !ok || !c.Info().Active() {
			continue
		}
		if b.relaxNonMandatory && c.Info().Priority != constraint.Mandatory {
			b.relaxed = append(b.relaxed, c)
			continue
		}
		if start.StartHour < 1 || start.StartHour > b.maxHours {
			b.warn(fmt.Sprintf("constraint skipped: %v: start hour %v is outside the daily grid",
				c.Describe(), start.StartHour))
			continue
		}

		days := lo.RangeFrom(0, len(b.days))
		if start.Day != nil {
			index := b.config.DayIndex(*start.Day)
			if index < 0 {
				b.warn(fmt.Sprintf("constraint skipped: %v: day %v is outside the school week",
					c.Describe(), *start.Day))
				continue
			}
			days = []int{index}
		}
		for _, day := range days {
			key := attendanceKey{owner: start.Class, day: day}
			if previous, ok := b.entryOverrides[key]; ok && previous != start.StartHour {
				b.warn(fmt.Sprintf("conflicting start hours for class %v on %v: hour %v replaces hour %v",
					start.Class, b.config.ActiveDays()[day], start.StartHour, previous))
			}
			b.entryOverrides[key] = start.StartHour
		}
	}
}

func (b *builder) entryHour(class string, day int) int {
	if hour, ok := b.entryOverrides[attendanceKey{owner: class, day: day}]; ok {
		return hour
	}
	return b.config.ClassStartHour(class)
}

// Family 7: an attended day starts at the class's first hour, and no lesson
// precedes it.
func (b *builder) encodeFirstHourEntry() {
	for _, class := range sortedKeys(b.byClass) {
		for day := range b.days {
			firstHour := b.entryHour(class, day)
			attends := b.attendanceVar(class, day)
			if attends == 0 {
				continue
			}

			entry := b.classOccupancyVar(class, day, firstHour)
			if entry == 0 {
				b.instance.AddClause(-attends)
				continue
			}
			b.instance.AddClause(-attends, entry)

			for hour := 1; hour < firstHour; hour++ {
				for _, activity := range b.byClass[class] {
					for _, v := range b.coveringStarts(activity, day, hour) {
						b.instance.AddClause(-v)
					}
				}
			}
		}
	}
}

// Family 6b: teachers with lessons work within [min, max] hours on every day
// they teach.
func (b *builder) encodeTeacherDailyBands() {
	for _, teacher := range sortedKeys(b.byTeacher) {
		min, max := b.config.TeacherBounds(teacher)
		for day := range b.days {
			var lits, weights []int
			for _, activity := range b.byTeacher[teacher] {
				hours := b.activities[activity].WeeklyHours
				for _, v := range b.dayStartVars(activity, day) {
					lits = append(lits, v)
					weights = append(weights, hours)
				}
			}
			if len(lits) == 0 {
				continue
			}

			b.instance.AddLinear(sat.LtEq(lits, weights, max))

			if min > 0 {
				works := b.instance.NewVar()
				for _, v := range lits {
					b.instance.AddClause(-v, works)
				}
				b.instance.AddClause(append([]int{-works}, lits...)...)
				b.instance.AddLinear(sat.GtEq(
					append(append([]int{}, lits...), -works),
					append(append([]int{}, weights...), min),
					min,
				))
			}
		}
	}
}

// Family 8: class timetables have no holes. An hour with any occupied hour
// before it and any occupied hour after it must itself be occupied; the
// running-disjunction chains rule out multi-hour holes that mere
// immediate-neighbor clauses would admit.
func (b *builder) encodeContiguity() {
	for _, class := range sortedKeys(b.byClass) {
		for day := range b.days {
			occupied := make([]int, b.maxHours+1)
			for hour := 1; hour <= b.maxHours; hour++ {
				occupied[hour] = b.classOccupancyVar(class, day, hour)
			}

			before := b.prefixChain(occupied, 1, b.maxHours, 1)
			after := b.prefixChain(occupied, b.maxHours, 1, -1)

			for hour := 2; hour < b.maxHours; hour++ {
				if before[hour] == 0 || after[hour] == 0 {
					continue
				}
				if occupied[hour] == 0 {
					b.instance.AddClause(-before[hour], -after[hour])
					continue
				}
				b.instance.AddClause(-before[hour], -after[hour], occupied[hour])
			}
		}
	}
}

// encodeUserConstraints walks the catalog. Mandatory entries are always hard;
// lower priorities are skipped for a later audit when relaxation is on. A
// malformed entry is logged and skipped without poisoning the rest.
func (b *builder) encodeUserConstraints() {
	for _, c := range b.constraints {
		if !c.Info().Active() {
			continue
		}
		if _, ok := c.(constraint.ClassStartHour); ok {
			// folded into the entry-hour family earlier
			continue
		}
		if b.relaxNonMandatory && c.Info().Priority != constraint.Mandatory {
			b.relaxed = append(b.relaxed, c)
			b.log.Debug("constraint relaxed", zap.String("constraint", c.Describe()))
			continue
		}
		if err := b.encodeConstraint(c); err != nil {
			b.warn(fmt.Sprintf("constraint skipped: %v: %v", c.Describe(), err))
			b.log.Warn("constraint skipped",
				zap.String("constraint", c.Describe()),
				zap.Error(err))
		}
	}
}

func (b *builder) encodeConstraint(c constraint.Constraint) error {
	switch c := c.(type) {
	case constraint.TeacherUnavailable:
		return b.encodeTeacherUnavailable(c)
	case constraint.TeacherMaxDailyHours:
		return b.encodeTeacherMaxDailyHours(c)
	case constraint.TeacherMaxWeeklyGaps:
		return b.encodeTeacherMaxWeeklyGaps(c)
	case constraint.TeacherDayOff:
		return b.encodeTeacherDayOff(c)
	case constraint.ClassExactDailyHours:
		return b.encodeClassDailyTotal(c.Class, c.Day, c.Hours)
	case constraint.ClassWeeklyDistribution:
		// Check every day before encoding any, so a malformed entry skips
		// the whole constraint instead of half-applying it.
		for day, hours := range c.DailyHours {
			if err := b.checkClassDailyTotal(c.Class, day, hours); err != nil {
				return err
			}
		}
		for day, hours := range c.DailyHours {
			if err := b.encodeClassDailyTotal(c.Class, day, hours); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported constraint kind %T", c)
	}
}

func (b *builder) encodeTeacherUnavailable(c constraint.TeacherUnavailable) error {
	indices := b.byTeacher[c.Teacher]
	if len(indices) == 0 {
		return nil
	}

	// A skipped constraint must leave the instance untouched, so every slot
	// is checked before the first clause goes in.
	for _, slot := range c.Slots {
		if b.config.DayIndex(slot.Day) < 0 {
			return fmt.Errorf("day %v is outside the school week", slot.Day)
		}
		if slot.Hour < 1 || slot.Hour > b.maxHours {
			return fmt.Errorf("hour %v is outside the daily grid", slot.Hour)
		}
	}

	for _, slot := range c.Slots {
		day := b.config.DayIndex(slot.Day)
		for _, activity := range indices {
			for _, v := range b.coveringStarts(activity, day, slot.Hour) {
				b.instance.AddClause(-v)
			}
		}
	}
	return nil
}

func (b *builder) encodeTeacherMaxDailyHours(c constraint.TeacherMaxDailyHours) error {
	if c.MaxHours < 0 {
		return fmt.Errorf("negative hour limit %v", c.MaxHours)
	}
	indices := b.byTeacher[c.Teacher]
	if len(indices) == 0 {
		return nil
	}

	for day := range b.days {
		var lits, weights []int
		for _, activity := range indices {
			hours := b.activities[activity].WeeklyHours
			for _, v := range b.dayStartVars(activity, day) {
				lits = append(lits, v)
				weights = append(weights, hours)
			}
		}
		if len(lits) > 0 {
			b.instance.AddLinear(sat.LtEq(lits, weights, c.MaxHours))
		}
	}
	return nil
}

func (b *builder) encodeTeacherDayOff(c constraint.TeacherDayOff) error {
	day := b.config.DayIndex(c.Day)
	if day < 0 {
		return fmt.Errorf("day %v is outside the school week", c.Day)
	}

	for _, activity := range b.byTeacher[c.Teacher] {
		for _, v := range b.dayStartVars(activity, day) {
			b.instance.AddClause(-v)
		}
	}
	return nil
}

// encodeTeacherMaxWeeklyGaps counts idle hours wedged between lessons. A gap
// indicator fires for an hour that is free while some earlier and some later
// hour of the same day are occupied; the weekly sum of indicators is capped.
func (b *builder) encodeTeacherMaxWeeklyGaps(c constraint.TeacherMaxWeeklyGaps) error {
	if c.MaxGaps < 0 {
		return fmt.Errorf("negative gap limit %v", c.MaxGaps)
	}
	indices := b.byTeacher[c.Teacher]
	if len(indices) == 0 {
		return nil
	}

	var gapVars []int
	for day := range b.days {
		occupied := make([]int, b.maxHours+1)
		for hour := 1; hour <= b.maxHours; hour++ {
			occupied[hour] = b.teacherOccupancyVar(c.Teacher, day, hour)
		}

		// before[h] is true iff some hour < h is occupied; after[h] mirrors it
		before := b.prefixChain(occupied, 1, b.maxHours, 1)
		after := b.prefixChain(occupied, b.maxHours, 1, -1)

		for hour := 2; hour < b.maxHours; hour++ {
			if before[hour] == 0 || after[hour] == 0 {
				continue
			}

			gap := b.instance.NewVar()
			if occupied[hour] == 0 {
				b.instance.AddClause(-before[hour], -after[hour], gap)
			} else {
				b.instance.AddClause(occupied[hour], -before[hour], -after[hour], gap)
			}
			gapVars = append(gapVars, gap)
		}
	}

	if len(gapVars) > 0 {
		b.instance.AddLinear(sat.AtMost(gapVars, c.MaxGaps))
	}
	return nil
}

// prefixChain builds running-disjunction indicators over occupied hours,
// walking from `from` towards `to` in the given direction. chain[h] is
// equivalent to "some hour strictly before h, in walk order, is occupied";
// a zero entry stands for constant false.
func (b *builder) prefixChain(occupied []int, from, to, direction int) []int {
	chain := make([]int, len(occupied))

	running := 0
	for hour := from; hour != to+direction; hour += direction {
		chain[hour] = running

		switch {
		case occupied[hour] == 0:
			// running stays as is
		case running == 0:
			running = occupied[hour]
		default:
			next := b.instance.NewVar()
			b.instance.AddClause(-running, next)
			b.instance.AddClause(-occupied[hour], next)
			b.instance.AddClause(-next, running, occupied[hour])
			running = next
		}
	}
	return chain
}

func (b *builder) checkClassDailyTotal(class string, weekday time.Weekday, hours int) error {
	if hours < 0 {
		return fmt.Errorf("negative hour total %v", hours)
	}
	day := b.config.DayIndex(weekday)
	if day < 0 {
		return fmt.Errorf("day %v is outside the school week", weekday)
	}
	if lits, _ := b.classDayLoad(class, day); len(lits) == 0 && hours > 0 {
		return fmt.Errorf("class %v has no activities to fill %v hours", class, hours)
	}
	return nil
}

func (b *builder) encodeClassDailyTotal(class string, weekday time.Weekday, hours int) error {
	if err := b.checkClassDailyTotal(class, weekday, hours); err != nil {
		return err
	}

	lits, weights := b.classDayLoad(class, b.config.DayIndex(weekday))
	if len(lits) == 0 {
		return nil
	}
	for _, constr := range sat.Eq(lits, weights, hours) {
		b.instance.AddLinear(constr)
	}
	return nil
}

func (b *builder) warn(message string) {
	b.warnings = append(b.warnings, message)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
