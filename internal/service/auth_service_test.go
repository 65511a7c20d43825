package service

import (
	"context"
	"errors"
	"testing"

	"medistore/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		request       *model.SignupRequest
		setupMocks    func(*MockUserRepository, *MockTokenIssuer)
		expectedError error
	}{
		{
			name:    "New customer",
			request: &model.SignupRequest{Username: "asha", Email: "asha@example.com", Password: "secret"},
			setupMocks: func(users *MockUserRepository, tokens *MockTokenIssuer) {
				users.On("Create", ctx, mock.AnythingOfType("*model.User")).Return(nil)
				tokens.On("Issue", mock.AnythingOfType("*model.User")).Return("token-1", nil)
			},
		},
		{
			name:    "Username taken",
			request: &model.SignupRequest{Username: "asha", Email: "asha@example.com", Password: "secret"},
			setupMocks: func(users *MockUserRepository, _ *MockTokenIssuer) {
				users.On("Create", ctx, mock.AnythingOfType("*model.User")).Return(model.ErrUserExists)
			},
			expectedError: model.ErrUserExists,
		},
		{
			name:          "Missing email",
			request:       &model.SignupRequest{Username: "asha", Password: "secret"},
			setupMocks:    func(*MockUserRepository, *MockTokenIssuer) {},
			expectedError: model.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tokens := new(MockTokenIssuer)
			tt.setupMocks(users, tokens)

			svc := NewAuthService(users, tokens, zerolog.Nop())
			resp, err := svc.Signup(ctx, tt.request)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "token-1", resp.Token)
				assert.Equal(t, "asha", resp.User.Username)
				assert.False(t, resp.User.IsAdmin)
				assert.Contains(t, resp.User.ID, "user-")
			}
			users.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	stored := &model.User{ID: "admin-1", Username: "admin", Password: "admin123", IsAdmin: true}

	tests := []struct {
		name          string
		request       *model.LoginRequest
		setupMocks    func(*MockUserRepository, *MockTokenIssuer)
		expectedError error
		errorContains string
	}{
		{
			name:    "Valid credentials",
			request: &model.LoginRequest{Username: "admin", Password: "admin123"},
			setupMocks: func(users *MockUserRepository, tokens *MockTokenIssuer) {
				users.On("GetByUsername", ctx, "admin").Return(stored, nil)
				tokens.On("Issue", stored).Return("token-1", nil)
			},
		},
		{
			name:    "Wrong password",
			request: &model.LoginRequest{Username: "admin", Password: "nope"},
			setupMocks: func(users *MockUserRepository, _ *MockTokenIssuer) {
				users.On("GetByUsername", ctx, "admin").Return(stored, nil)
			},
			expectedError: model.ErrInvalidCredentials,
		},
		{
			name:    "Unknown user",
			request: &model.LoginRequest{Username: "ghost", Password: "x"},
			setupMocks: func(users *MockUserRepository, _ *MockTokenIssuer) {
				users.On("GetByUsername", ctx, "ghost").Return(nil, nil)
			},
			expectedError: model.ErrInvalidCredentials,
		},
		{
			name:          "Missing password",
			request:       &model.LoginRequest{Username: "admin"},
			setupMocks:    func(*MockUserRepository, *MockTokenIssuer) {},
			expectedError: model.ErrValidation,
		},
		{
			name:    "Token failure",
			request: &model.LoginRequest{Username: "admin", Password: "admin123"},
			setupMocks: func(users *MockUserRepository, tokens *MockTokenIssuer) {
				users.On("GetByUsername", ctx, "admin").Return(stored, nil)
				tokens.On("Issue", stored).Return("", errors.New("signing failed"))
			},
			errorContains: "failed to issue token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tokens := new(MockTokenIssuer)
			tt.setupMocks(users, tokens)

			svc := NewAuthService(users, tokens, zerolog.Nop())
			resp, err := svc.Login(ctx, tt.request)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, resp)
			case tt.errorContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			default:
				require.NoError(t, err)
				assert.Equal(t, "token-1", resp.Token)
				assert.True(t, resp.User.IsAdmin)
			}
			users.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}
