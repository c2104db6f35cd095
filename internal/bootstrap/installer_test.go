package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"docbridge/internal/settings"
)

func newTestInstaller(p *fakePrompter) (*Installer, *fakeRunner) {
	runner := scriptedVersions("1.0.0")
	return &Installer{
		Runner:   runner,
		Prompter: p,
		State:    NewUpdateState(newMemStore(), "ws"),
	}, runner
}

func TestDecideInstallNothing(t *testing.T) {
	p := &fakePrompter{}
	inst, _ := newTestInstaller(p)

	action := inst.DecideInstall(context.Background(), settings.InstallNothing, "pkg")

	assert.Equal(t, ActionAbort, action)
	assert.Zero(t, p.askInstallCalls)
}

func TestDecideInstallAutomatic(t *testing.T) {
	p := &fakePrompter{}
	inst, _ := newTestInstaller(p)

	action := inst.DecideInstall(context.Background(), settings.InstallAutomatic, "pkg")

	assert.Equal(t, ActionContinue, action)
	assert.Zero(t, p.askInstallCalls)
}

func TestDecideInstallAskMapsChoices(t *testing.T) {
	tests := []struct {
		choice    InstallChoice
		selectEnv bool
		want      NextAction
	}{
		{ChoiceProceed, false, ActionContinue},
		{ChoiceDecline, false, ActionAbort},
		{ChoiceSwitchEnvironment, true, ActionRetry},
		{ChoiceSwitchEnvironment, false, ActionAbort},
		{ChoiceDisable, false, ActionAbort},
	}
	for _, tt := range tests {
		p := &fakePrompter{installChoice: tt.choice, selectEnv: tt.selectEnv}
		inst, _ := newTestInstaller(p)

		action := inst.DecideInstall(context.Background(), settings.InstallAsk, "pkg")
		assert.Equal(t, tt.want, action, "choice %v selectEnv %v", tt.choice, tt.selectEnv)
	}
}

func TestDecideInstallDisablePersists(t *testing.T) {
	p := &fakePrompter{installChoice: ChoiceDisable}
	inst, _ := newTestInstaller(p)

	persisted := false
	inst.PersistDisable = func() error {
		persisted = true
		return nil
	}

	action := inst.DecideInstall(context.Background(), settings.InstallAsk, "pkg")

	assert.Equal(t, ActionAbort, action)
	assert.True(t, persisted)
}

func TestInstallBuildsPipCommand(t *testing.T) {
	p := &fakePrompter{}
	inst, runner := newTestInstaller(p)

	err := inst.Install(context.Background(), []string{"/usr/bin/python3"}, "docbridge-server")
	assert.NoError(t, err)

	assert.Equal(t,
		[]string{"/usr/bin/python3", "-m", "pip", "install", "docbridge-server"},
		runner.calls[0])
}

func TestUpdateBuildsUpgradeCommand(t *testing.T) {
	p := &fakePrompter{}
	inst, runner := newTestInstaller(p)

	err := inst.Update(context.Background(), []string{"/usr/bin/python3"}, "docbridge-server")
	assert.NoError(t, err)

	assert.Equal(t,
		[]string{"/usr/bin/python3", "-m", "pip", "install", "--upgrade", "docbridge-server"},
		runner.calls[0])
}
