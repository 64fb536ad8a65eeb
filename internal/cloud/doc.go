// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the remote completion client for pocketchat.
//
// One client serves every provider in the model catalog: OpenRouter,
// OpenAI, and user-configured custom endpoints. Free-tier models fall
// back to a keyless endpoint when no credential is configured, so the
// app works out of the box.
//
// # Key Types
//
//   - Client: Dispatches chat completions per the model's provider
//   - TitleGenerator: Produces short chat titles, never fails
//   - RequestError: A non-2xx response with status and body
//
// # Usage
//
//	client := cloud.NewClient(settings, logger)
//	reply, err := client.Complete(ctx, chat.Messages, chat.Model)
package cloud
