package dialogue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/posting-assistant/internal/oracle"
	"github.com/jonathan/posting-assistant/internal/schema"
	"github.com/jonathan/posting-assistant/internal/types"
)

func newTestEngine(o oracle.Oracle) *Engine {
	return NewEngine(o, nil, nil, WithClock(func() time.Time { return epoch }))
}

// intents answers ClassifyIntent from a table keyed by user text; other texts
// are direct answers.
func intents(table map[string]oracle.IntentResult) func(oracle.IntentRequest) (oracle.IntentResult, error) {
	return func(req oracle.IntentRequest) (oracle.IntentResult, error) {
		if res, ok := table[req.Text]; ok {
			return res, nil
		}
		return oracle.IntentResult{Intention: string(types.IntentDirectAnswer), Confidence: 1}, nil
	}
}

func alwaysInvalid(oracle.ExtractRequest) (oracle.ExtractResult, error) {
	return oracle.ExtractResult{Invalid: true, Error: "réponse inutilisable"}, nil
}

func TestHandleTurn_FirstTurnWelcomesAndAsks(t *testing.T) {
	e := newTestEngine(&oracle.Scripted{Language: "en"})

	s, reply, err := e.HandleTurn(context.Background(), NewState("s1", epoch), "Hi there")
	require.NoError(t, err)

	assert.Equal(t, PhaseAwaitUserInput, s.Phase)
	assert.Equal(t, "en", s.Language)
	assert.Equal(t, types.FieldTitle, s.CurrentField)
	require.Len(t, reply.Messages, 2)
	assert.Equal(t, fallback("en", msgWelcome), reply.Messages[0])
	assert.Equal(t, "What is the job title?", reply.Messages[1])
	assert.Equal(t, types.FieldTitle, reply.Field)
	assert.False(t, reply.Terminal)
}

func TestHandleTurn_ComposedMessagesPreferred(t *testing.T) {
	o := &oracle.Scripted{ComposeFunc: func(req oracle.ComposeRequest) (string, error) {
		return "composed " + string(req.Kind), nil
	}}
	e := newTestEngine(o)

	_, reply, err := e.HandleTurn(context.Background(), NewState("s1", epoch), "Bonjour")
	require.NoError(t, err)
	assert.Equal(t, []string{"composed welcome", "composed question"}, reply.Messages)
}

func TestHandleTurn_UnsupportedLanguageIsTranslated(t *testing.T) {
	e := newTestEngine(&oracle.Scripted{Language: "de"})

	s, reply, err := e.HandleTurn(context.Background(), NewState("s1", epoch), "Hallo")
	require.NoError(t, err)
	assert.Equal(t, "de", s.Language)
	// Translation is unavailable, so the French text is kept.
	assert.Equal(t, fallback("fr", msgWelcome), reply.Messages[0])
}

func TestHandleTurn_CompletesFreelanceOnsitePosting(t *testing.T) {
	answers := map[types.FieldKey]string{
		types.FieldTitle:          "Développeur Go",
		types.FieldDescription:    "Construire des services de paiement",
		types.FieldDiscipline:     "Informatique",
		types.FieldAvailability:   "dans 45 jours",
		types.FieldSeniority:      "senior",
		types.FieldLanguages:      "Français, Anglais",
		types.FieldSkills:         "Go, Kubernetes",
		types.FieldJobType:        "freelance",
		types.FieldWorkMode:       "ONSITE",
		types.FieldMinHourlyRate:  "50",
		types.FieldMaxHourlyRate:  "70",
		types.FieldWeeklyHours:    "35",
		types.FieldEstimatedWeeks: "12",
		types.FieldCountry:        "France",
		types.FieldCity:           "Lyon",
	}
	e := newTestEngine(&oracle.Scripted{})

	s, reply, err := e.HandleTurn(context.Background(), NewState("s1", epoch), "Bonjour")
	require.NoError(t, err)

	for i := 0; i < 40 && !reply.Terminal; i++ {
		answer, ok := answers[reply.Field]
		require.True(t, ok, "unexpected field %q", reply.Field)
		s, reply, err = e.HandleTurn(context.Background(), s, answer)
		require.NoError(t, err)
	}

	require.True(t, reply.Terminal)
	assert.True(t, reply.Complete)
	assert.False(t, s.Forced)
	assert.Empty(t, s.Missing())
	assert.Equal(t, fallback("fr", msgComplete), s.FinalMessage)
	assert.Equal(t, 6.0, *s.Record.Availability)
	assert.Equal(t, types.JobTypeFreelance, *s.Record.JobType)
	assert.Equal(t, "France", s.Record.Country.Name)
	assert.True(t, s.Record.Languages[0].Required)
	assert.Len(t, s.Memory.Snapshots, 10)
}

func TestHandleTurn_ThreeFailuresAdvance(t *testing.T) {
	o := &oracle.Scripted{ExtractFunc: alwaysInvalid}
	e := newTestEngine(o)
	s := awaiting(types.FieldTitle, types.Record{})

	var reply Reply
	var err error
	for i := 1; i < MaxFailures; i++ {
		s, reply, err = e.HandleTurn(context.Background(), s, "blabla")
		require.NoError(t, err)
		assert.Equal(t, types.FieldTitle, reply.Field)
		assert.Equal(t, i, s.Failures[types.FieldTitle])
		assert.Contains(t, reply.Text(), "réponse inutilisable")
		assert.Contains(t, reply.Text(), "Quel est l'intitulé du poste ?")
	}

	s, reply, err = e.HandleTurn(context.Background(), s, "blabla")
	require.NoError(t, err)
	assert.Equal(t, types.FieldDescription, reply.Field)
	assert.True(t, s.Deferred.Has(types.FieldTitle))
	assert.False(t, s.Processed.Has(types.FieldTitle))
	assert.Contains(t, s.Missing(), types.FieldTitle)
}

func TestHandleTurn_PersistentFailureFinalizesIncomplete(t *testing.T) {
	e := newTestEngine(&oracle.Scripted{ExtractFunc: alwaysInvalid})

	s, reply, err := e.HandleTurn(context.Background(), NewState("s1", epoch), "Bonjour")
	require.NoError(t, err)

	turns := 0
	for ; turns < 200 && !reply.Terminal; turns++ {
		s, reply, err = e.HandleTurn(context.Background(), s, "blabla")
		require.NoError(t, err)
	}

	require.True(t, reply.Terminal)
	assert.False(t, reply.Complete)
	// Each base field is asked MaxFailures times per offer, over MaxDeferrals
	// offers.
	assert.Equal(t, len(schema.BaseFields)*MaxFailures*MaxDeferrals, turns)
	for _, f := range schema.BaseFields {
		assert.True(t, s.Abandoned.Has(f), f)
	}
	assert.Less(t, s.Iterations, MaxIterations)
	assert.Contains(t, s.FinalMessage, "title")
}

func TestHandleTurn_IterationCapForcesFinalization(t *testing.T) {
	e := newTestEngine(&oracle.Scripted{})
	s := awaiting(types.FieldTitle, types.Record{})
	s.Iterations = MaxIterations - 1

	s, reply, err := e.HandleTurn(context.Background(), s, "Développeur Go")
	require.NoError(t, err)

	assert.True(t, reply.Terminal)
	assert.True(t, s.Forced)
	assert.Equal(t, "Développeur Go", *s.Record.Title)
	assert.Empty(t, reply.Field)
}

func TestHandleTurn_FinalizationChecksRecord(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := NewEngine(&oracle.Scripted{}, nil, zap.New(core), WithClock(func() time.Time { return epoch }))

	r := types.Record{
		WorkMode:   ptr(types.WorkModeRemote),
		Continents: []types.Place{{Name: "Asia"}},
		Countries:  []types.Place{{Name: "France"}},
	}
	s := awaiting(types.FieldTitle, r)
	s.Iterations = MaxIterations - 1

	s, reply, err := e.HandleTurn(context.Background(), s, "Développeur Go")
	require.NoError(t, err)

	assert.True(t, reply.Terminal)
	assert.Contains(t, s.Inconsistency, "France")
	require.Equal(t, 1, logs.FilterMessage("finalized record is inconsistent").Len())

	consistent := awaiting(types.FieldTitle, types.Record{})
	consistent.Iterations = MaxIterations - 1
	consistent, _, err = e.HandleTurn(context.Background(), consistent, "Développeur Go")
	require.NoError(t, err)
	assert.True(t, consistent.Terminal)
	assert.Empty(t, consistent.Inconsistency)
}

func TestHandleTurn_TerminalRepeatsSummary(t *testing.T) {
	e := newTestEngine(&oracle.Scripted{})
	s := awaiting(types.FieldTitle, types.Record{})
	s.Iterations = MaxIterations - 1
	s, first, err := e.HandleTurn(context.Background(), s, "Dev")
	require.NoError(t, err)

	o := &oracle.Scripted{}
	e = newTestEngine(o)
	next, reply, err := e.HandleTurn(context.Background(), s, "encore une chose")
	require.NoError(t, err)

	assert.True(t, reply.Terminal)
	assert.Equal(t, []string{s.FinalMessage}, reply.Messages)
	assert.Equal(t, first.Messages[len(first.Messages)-1], s.FinalMessage)
	assert.Equal(t, s, next)
	assert.Empty(t, o.Calls())
}

func TestHandleTurn_Modify(t *testing.T) {
	o := &oracle.Scripted{ClassifyIntentFunc: intents(map[string]oracle.IntentResult{
		"change le titre": {Intention: "MODIFY_FIELD", FieldToModify: "titre", Confidence: 0.9},
		"Lead Dev":        {Intention: "MODIFY_FIELD", FieldToModify: "title", Confidence: 0.4},
	})}
	e := newTestEngine(o)
	s := awaiting(types.FieldSkills, types.Record{Title: ptr("Développeur Go")})

	s, reply, err := e.HandleTurn(context.Background(), s, "change le titre")
	require.NoError(t, err)
	assert.Equal(t, types.FieldTitle, reply.Field)
	assert.Equal(t, "Valeur actuelle pour title : Développeur Go. Par quoi voulez-vous la remplacer ?", reply.Text())
	assert.True(t, s.SkipModify)

	s, reply, err = e.HandleTurn(context.Background(), s, "Lead Dev")
	require.NoError(t, err)
	assert.Equal(t, "Lead Dev", *s.Record.Title)
	assert.Equal(t, types.FieldDescription, reply.Field)
	assert.False(t, s.SkipModify)
}

func TestHandleTurn_InlineModify(t *testing.T) {
	o := &oracle.Scripted{ClassifyIntentFunc: intents(map[string]oracle.IntentResult{
		"mets le titre à Lead Dev": {Intention: "MODIFY_FIELD", FieldToModify: "title", Value: "Lead Dev"},
	})}
	e := newTestEngine(o)
	s := awaiting(types.FieldDescription, types.Record{Title: ptr("Dev")})
	s.Processed = types.FieldSet{types.FieldTitle: true}

	s, reply, err := e.HandleTurn(context.Background(), s, "mets le titre à Lead Dev")
	require.NoError(t, err)
	assert.Equal(t, "Lead Dev", *s.Record.Title)
	assert.Equal(t, types.FieldDescription, reply.Field)
}

func TestHandleTurn_ModifyParentKeepsChildrenContained(t *testing.T) {
	o := &oracle.Scripted{ClassifyIntentFunc: intents(map[string]oracle.IntentResult{
		"change continents to Asia":   {Intention: "MODIFY_FIELD", FieldToModify: "continents", Value: "Asia"},
		"change countries to Germany": {Intention: "MODIFY_FIELD", FieldToModify: "countries", Value: "Germany"},
	})}
	e := newTestEngine(o)
	check := e.extractor.Validator()

	t.Run("continents orphaning a country", func(t *testing.T) {
		r := types.Record{
			WorkMode:   ptr(types.WorkModeRemote),
			Continents: []types.Place{{Name: "Europe"}},
			Countries:  []types.Place{{Name: "France"}},
		}
		s := awaiting(types.FieldRegions, r)
		s.Processed = types.FieldSet{types.FieldContinents: true, types.FieldCountries: true}

		next, reply, err := e.HandleTurn(context.Background(), s, "change continents to Asia")
		require.NoError(t, err)

		assert.Equal(t, []types.Place{{Name: "Europe"}}, next.Record.Continents)
		assert.Equal(t, []types.Place{{Name: "France"}}, next.Record.Countries)
		assert.Contains(t, reply.Text(), "France")
		assert.NoError(t, check.CheckRecord(next.Record))
	})

	t.Run("countries orphaning a region", func(t *testing.T) {
		regions := []types.Place{{Name: "Île-de-France", Country: "France"}}
		r := types.Record{
			WorkMode:   ptr(types.WorkModeRemote),
			Continents: []types.Place{{Name: "Europe"}},
			Countries:  []types.Place{{Name: "France"}},
			Regions:    regions,
		}
		s := awaiting(types.FieldTimeZone, r)
		s.Processed = types.FieldSet{
			types.FieldContinents: true,
			types.FieldCountries:  true,
			types.FieldRegions:    true,
		}

		next, reply, err := e.HandleTurn(context.Background(), s, "change countries to Germany")
		require.NoError(t, err)

		assert.Equal(t, []types.Place{{Name: "France"}}, next.Record.Countries)
		assert.Equal(t, regions, next.Record.Regions)
		assert.Contains(t, reply.Text(), "Île-de-France")
		assert.NoError(t, check.CheckRecord(next.Record))
	})
}

func TestHandleTurn_Status(t *testing.T) {
	o := &oracle.Scripted{ClassifyIntentFunc: intents(map[string]oracle.IntentResult{
		"on en est où ?":       {Intention: "SHOW_STATUS"},
		"et les compétences ?": {Intention: "SHOW_STATUS", FieldToModify: "compétences"},
	})}
	e := newTestEngine(o)
	s := awaiting(types.FieldDiscipline, types.Record{Title: ptr("Dev"), Availability: ptr(0.0)})

	s, reply, err := e.HandleTurn(context.Background(), s, "on en est où ?")
	require.NoError(t, err)
	require.Len(t, reply.Messages, 2)
	assert.Contains(t, reply.Messages[0], "Voici les informations déjà renseignées")
	assert.Contains(t, reply.Messages[0], "title : Dev")
	assert.Contains(t, reply.Messages[0], "availability : Immédiat")
	assert.Equal(t, s.CurrentQuestion, reply.Messages[1])
	assert.Equal(t, types.FieldDiscipline, reply.Field)
	assert.Zero(t, s.Failures[types.FieldDiscipline])

	_, reply, err = e.HandleTurn(context.Background(), s, "et les compétences ?")
	require.NoError(t, err)
	assert.Equal(t, "skills : Non spécifié", reply.Messages[0])
}

func TestHandleTurn_NoPreference(t *testing.T) {
	o := &oracle.Scripted{ClassifyIntentFunc: intents(map[string]oracle.IntentResult{
		"peu importe": {Intention: "NO_PREFERENCE"},
	})}
	e := newTestEngine(o)

	s, reply, err := e.HandleTurn(context.Background(), awaiting(types.FieldAvailability, types.Record{}), "peu importe")
	require.NoError(t, err)
	require.NotNil(t, s.Record.Availability)
	assert.Equal(t, 0.0, *s.Record.Availability)
	assert.NotEqual(t, types.FieldAvailability, reply.Field)

	s, reply, err = e.HandleTurn(context.Background(), awaiting(types.FieldTitle, types.Record{}), "peu importe")
	require.NoError(t, err)
	assert.Equal(t, types.FieldTitle, reply.Field)
	assert.Equal(t, 1, s.Failures[types.FieldTitle])
	assert.Contains(t, reply.Text(), "pas de valeur par défaut")
}

func TestHandleTurn_NoPreferenceRemoteCountries(t *testing.T) {
	o := &oracle.Scripted{ClassifyIntentFunc: intents(map[string]oracle.IntentResult{
		"n'importe où": {Intention: "NO_PREFERENCE"},
	})}
	e := newTestEngine(o)
	r := types.Record{
		WorkMode:   ptr(types.WorkModeRemote),
		Continents: []types.Place{{Name: "Europe"}},
	}

	s, _, err := e.HandleTurn(context.Background(), awaiting(types.FieldCountries, r), "n'importe où")
	require.NoError(t, err)
	assert.Equal(t, []types.Place{{Name: types.AllMarker}}, s.Record.Countries)
}

func TestHandleTurn_Refuse(t *testing.T) {
	o := &oracle.Scripted{ClassifyIntentFunc: intents(map[string]oracle.IntentResult{
		"je préfère ne pas répondre": {Intention: "REFUSE"},
	})}
	e := newTestEngine(o)

	s, reply, err := e.HandleTurn(context.Background(), awaiting(types.FieldTitle, types.Record{}), "je préfère ne pas répondre")
	require.NoError(t, err)
	assert.True(t, s.Processed.Has(types.FieldTitle))
	assert.Contains(t, s.Missing(), types.FieldTitle)
	assert.Equal(t, types.FieldDescription, reply.Field)
}

func TestHandleTurn_EmptyRepeatsQuestion(t *testing.T) {
	o := &oracle.Scripted{}
	e := newTestEngine(o)
	s := awaiting(types.FieldTitle, types.Record{})

	next, reply, err := e.HandleTurn(context.Background(), s, "   ")
	require.NoError(t, err)
	assert.Equal(t, []string{s.CurrentQuestion}, reply.Messages)
	assert.Zero(t, next.Failures[types.FieldTitle])
	assert.Zero(t, o.CallCount("ClassifyIntent"))
	assert.Zero(t, o.CallCount("Extract"))
}

func TestHandleTurn_Clarification(t *testing.T) {
	o := &oracle.Scripted{ClassifyIntentFunc: intents(map[string]oracle.IntentResult{
		"c'est-à-dire ?": {Intention: "CLARIFICATION"},
	})}
	e := newTestEngine(o)

	s, reply, err := e.HandleTurn(context.Background(), awaiting(types.FieldSeniority, types.Record{}), "c'est-à-dire ?")
	require.NoError(t, err)
	assert.Contains(t, reply.Text(), "Précision")
	assert.Equal(t, types.FieldSeniority, reply.Field)
	assert.Zero(t, s.Failures[types.FieldSeniority])
}

func TestHandleTurn_ConfusionCountsAsFailure(t *testing.T) {
	o := &oracle.Scripted{ClassifyIntentFunc: intents(map[string]oracle.IntentResult{
		"quelle heure est-il ?": {Intention: "SMALL_TALK"},
	})}
	e := newTestEngine(o)

	s, reply, err := e.HandleTurn(context.Background(), awaiting(types.FieldTitle, types.Record{}), "quelle heure est-il ?")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Failures[types.FieldTitle])
	assert.Contains(t, reply.Text(), "pas sûr d'avoir compris")
}

func TestHandleTurn_ContradictionRejected(t *testing.T) {
	e := newTestEngine(&oracle.Scripted{})
	r := types.Record{JobType: ptr(types.JobTypeFreelance), MaxHourlyRate: ptr(60.0)}
	s := awaiting(types.FieldMinHourlyRate, r)

	next, reply, err := e.HandleTurn(context.Background(), s, "80")
	require.NoError(t, err)
	assert.Nil(t, next.Record.MinHourlyRate)
	assert.Equal(t, 1, next.Failures[types.FieldMinHourlyRate])
	require.Len(t, next.Memory.Contradictions, 1)
	assert.Contains(t, reply.Text(), "taux horaire maximum")
}

func TestHandleTurn_ClassifierDownIsDirectAnswer(t *testing.T) {
	o := &oracle.Scripted{ClassifyIntentFunc: func(oracle.IntentRequest) (oracle.IntentResult, error) {
		return oracle.IntentResult{}, &oracle.UnavailableError{Op: "classify-intent", Cause: errors.New("timeout")}
	}}
	e := newTestEngine(o)

	s, _, err := e.HandleTurn(context.Background(), awaiting(types.FieldTitle, types.Record{}), "Développeur Go")
	require.NoError(t, err)
	assert.Equal(t, "Développeur Go", *s.Record.Title)
}

func TestHandleTurn_ExtractorDownReformulates(t *testing.T) {
	o := &oracle.Scripted{ExtractFunc: func(oracle.ExtractRequest) (oracle.ExtractResult, error) {
		return oracle.ExtractResult{}, &oracle.UnavailableError{Op: "extract-value", Cause: errors.New("503")}
	}}
	e := newTestEngine(o)

	s, reply, err := e.HandleTurn(context.Background(), awaiting(types.FieldTitle, types.Record{}), "Développeur Go")
	require.NoError(t, err)
	assert.False(t, s.Terminal)
	assert.Equal(t, 1, s.Failures[types.FieldTitle])
	assert.Contains(t, reply.Text(), fallback("fr", msgUnreadable))
}

func TestHandleTurn_CanceledContextLeavesStateUnchanged(t *testing.T) {
	e := newTestEngine(&oracle.Scripted{})
	s := awaiting(types.FieldTitle, types.Record{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	next, _, err := e.HandleTurn(ctx, s, "Dev")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, s, next)
}

func TestHandleTurn_RejectsStateMidTurn(t *testing.T) {
	e := newTestEngine(&oracle.Scripted{})
	s := awaiting(types.FieldTitle, types.Record{})
	s.Phase = PhaseProcessInput

	_, _, err := e.HandleTurn(context.Background(), s, "Dev")
	assert.Error(t, err)
}
