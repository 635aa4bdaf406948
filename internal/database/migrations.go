// internal/database/migrations.go
package database

// Migrations returns the versioned schema migrations in apply order. Versions
// are millisecond timestamps; each migration is reversible.
func Migrations() []Migration {
	return []Migration{
		createUsersTable(),
		createArtisanShopsTable(),
		createShopProductsTable(),
		moveArtisanShopsToShopSchema(),
		createAgentTasksTable(),
		createPaymentsAndLedgerSchema(),
	}
}

func createUsersTable() Migration {
	return Migration{
		Version: 1768326087139,
		Name:    "CreateUsersTable",
		Up: []string{
			`CREATE SCHEMA IF NOT EXISTS auth`,
			`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
			`CREATE TABLE auth.users (
				instance_id UUID NULL,
				id UUID NOT NULL DEFAULT uuid_generate_v4(),
				aud VARCHAR(255) NULL,
				role VARCHAR(255) NULL,
				email VARCHAR(255) NULL,
				encrypted_password VARCHAR(255) NULL,
				email_confirmed_at TIMESTAMP WITH TIME ZONE NULL,
				invited_at TIMESTAMP WITH TIME ZONE NULL,
				confirmation_token VARCHAR(255) NULL,
				confirmation_sent_at TIMESTAMP WITH TIME ZONE NULL,
				recovery_token VARCHAR(255) NULL,
				recovery_sent_at TIMESTAMP WITH TIME ZONE NULL,
				email_change_token_new VARCHAR(255) NULL,
				email_change VARCHAR(255) NULL,
				email_change_sent_at TIMESTAMP WITH TIME ZONE NULL,
				last_sign_in_at TIMESTAMP WITH TIME ZONE NULL,
				raw_app_meta_data JSONB NULL,
				raw_user_meta_data JSONB NULL,
				is_super_admin BOOLEAN NULL,
				created_at TIMESTAMP WITH TIME ZONE NULL,
				updated_at TIMESTAMP WITH TIME ZONE NULL,
				phone TEXT NULL DEFAULT NULL,
				phone_confirmed_at TIMESTAMP WITH TIME ZONE NULL,
				phone_change TEXT NULL DEFAULT '',
				phone_change_token VARCHAR(255) NULL DEFAULT '',
				phone_change_sent_at TIMESTAMP WITH TIME ZONE NULL,
				confirmed_at TIMESTAMP WITH TIME ZONE GENERATED ALWAYS AS (LEAST(email_confirmed_at, phone_confirmed_at)) STORED NULL,
				email_change_token_current VARCHAR(255) NULL DEFAULT '',
				email_change_confirm_status SMALLINT NULL DEFAULT 0,
				banned_until TIMESTAMP WITH TIME ZONE NULL,
				reauthentication_token VARCHAR(255) NULL DEFAULT '',
				reauthentication_sent_at TIMESTAMP WITH TIME ZONE NULL,
				is_sso_user BOOLEAN NOT NULL DEFAULT false,
				deleted_at TIMESTAMP WITH TIME ZONE NULL,
				is_anonymous BOOLEAN NOT NULL DEFAULT false,
				CONSTRAINT users_pkey PRIMARY KEY (id),
				CONSTRAINT users_phone_key UNIQUE (phone),
				CONSTRAINT users_email_change_confirm_status_check CHECK (
					(email_change_confirm_status >= 0) AND (email_change_confirm_status <= 2)
				)
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS confirmation_token_idx
				ON auth.users USING btree (confirmation_token)
				WHERE ((confirmation_token)::text !~ '^[0-9 ]*$'::text)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS email_change_token_current_idx
				ON auth.users USING btree (email_change_token_current)
				WHERE ((email_change_token_current)::text !~ '^[0-9 ]*$'::text)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS email_change_token_new_idx
				ON auth.users USING btree (email_change_token_new)
				WHERE ((email_change_token_new)::text !~ '^[0-9 ]*$'::text)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS reauthentication_token_idx
				ON auth.users USING btree (reauthentication_token)
				WHERE ((reauthentication_token)::text !~ '^[0-9 ]*$'::text)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS recovery_token_idx
				ON auth.users USING btree (recovery_token)
				WHERE ((recovery_token)::text !~ '^[0-9 ]*$'::text)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS users_email_partial_key
				ON auth.users USING btree (email)
				WHERE (is_sso_user = false)`,
			`CREATE INDEX IF NOT EXISTS users_instance_id_email_idx
				ON auth.users USING btree (instance_id, lower((email)::text))`,
			`CREATE INDEX IF NOT EXISTS users_instance_id_idx
				ON auth.users USING btree (instance_id)`,
			`CREATE INDEX IF NOT EXISTS users_is_anonymous_idx
				ON auth.users USING btree (is_anonymous)`,
		},
		// The uuid-ossp extension and the auth schema are shared, so they stay.
		Down: []string{
			`DROP INDEX IF EXISTS auth.users_is_anonymous_idx`,
			`DROP INDEX IF EXISTS auth.users_instance_id_idx`,
			`DROP INDEX IF EXISTS auth.users_instance_id_email_idx`,
			`DROP INDEX IF EXISTS auth.users_email_partial_key`,
			`DROP INDEX IF EXISTS auth.recovery_token_idx`,
			`DROP INDEX IF EXISTS auth.reauthentication_token_idx`,
			`DROP INDEX IF EXISTS auth.email_change_token_new_idx`,
			`DROP INDEX IF EXISTS auth.email_change_token_current_idx`,
			`DROP INDEX IF EXISTS auth.confirmation_token_idx`,
			`DROP TABLE IF EXISTS auth.users`,
		},
	}
}

func createArtisanShopsTable() Migration {
	return Migration{
		Version: 1768850135588,
		Name:    "CreateArtisanShopsTable",
		Up: []string{
			`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
			`CREATE TABLE public.artisan_shops (
				id UUID NOT NULL DEFAULT uuid_generate_v4(),
				user_id UUID NOT NULL,
				shop_name TEXT NOT NULL,
				shop_slug TEXT NOT NULL,
				description TEXT NULL,
				story TEXT NULL,
				logo_url TEXT NULL,
				banner_url TEXT NULL,
				craft_type TEXT NULL,
				region TEXT NULL,
				certifications JSONB NULL DEFAULT '[]'::jsonb,
				contact_info JSONB NULL DEFAULT '{}'::jsonb,
				social_links JSONB NULL DEFAULT '{}'::jsonb,
				active BOOLEAN NOT NULL DEFAULT true,
				featured BOOLEAN NOT NULL DEFAULT false,
				seo_data JSONB NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
				privacy_level TEXT NULL DEFAULT 'public'::text,
				data_classification JSONB NULL DEFAULT '{"contact": "sensitive", "analytics": "restricted", "strategies": "confidential"}'::jsonb,
				public_profile JSONB NULL,
				creation_status TEXT NULL DEFAULT 'complete'::text,
				creation_step INTEGER NULL DEFAULT 0,
				primary_colors JSONB NULL DEFAULT '[]'::jsonb,
				secondary_colors JSONB NULL DEFAULT '[]'::jsonb,
				brand_claim TEXT NULL,
				hero_config JSONB NULL DEFAULT '{"slides": [], "autoplay": true, "duration": 5000}'::jsonb,
				about_content JSONB NULL DEFAULT '{"story": "", "title": "", "values": [], "vision": "", "mission": ""}'::jsonb,
				contact_config JSONB NULL DEFAULT '{"email": "", "hours": "", "phone": "", "address": "", "whatsapp": "", "map_embed": ""}'::jsonb,
				active_theme_id TEXT NULL,
				publish_status TEXT NULL DEFAULT 'pending_publish'::text,
				marketplace_approved BOOLEAN NULL DEFAULT false,
				marketplace_approved_at TIMESTAMP WITH TIME ZONE NULL,
				marketplace_approved_by UUID NULL,
				id_contraparty TEXT NULL,
				artisan_profile JSONB NULL,
				artisan_profile_completed BOOLEAN NULL DEFAULT false,
				bank_data_status TEXT NULL DEFAULT 'not_set'::text,
				marketplace_approval_status TEXT NULL DEFAULT 'pending'::text,
				department TEXT NULL,
				municipality TEXT NULL,
				CONSTRAINT artisan_shops_pkey PRIMARY KEY (id),
				CONSTRAINT artisan_shops_shop_slug_key UNIQUE (shop_slug),
				CONSTRAINT unique_user_shop UNIQUE (user_id),
				CONSTRAINT artisan_shops_user_id_fkey FOREIGN KEY (user_id)
					REFERENCES auth.users (id) ON DELETE CASCADE,
				CONSTRAINT artisan_shops_privacy_level_check CHECK (
					privacy_level = ANY (ARRAY['public'::text, 'limited'::text, 'private'::text])
				),
				CONSTRAINT artisan_shops_creation_status_check CHECK (
					creation_status = ANY (ARRAY['draft'::text, 'incomplete'::text, 'complete'::text])
				),
				CONSTRAINT artisan_shops_publish_status_check CHECK (
					publish_status = ANY (ARRAY['pending_publish'::text, 'published'::text])
				),
				CONSTRAINT artisan_shops_bank_data_status_check CHECK (
					bank_data_status = ANY (ARRAY['not_set'::text, 'pending'::text, 'approved'::text])
				),
				CONSTRAINT artisan_shops_marketplace_approval_status_check CHECK (
					marketplace_approval_status = ANY (ARRAY['pending'::text, 'approved'::text, 'rejected'::text])
				)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_user_id
				ON public.artisan_shops USING btree (user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_slug
				ON public.artisan_shops USING btree (shop_slug)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_active_theme
				ON public.artisan_shops USING btree (active_theme_id)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_profile_completed
				ON public.artisan_shops USING btree (artisan_profile_completed)
				WHERE (artisan_profile_completed = true)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_department
				ON public.artisan_shops USING btree (department)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_municipality
				ON public.artisan_shops USING btree (municipality)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS public.idx_artisan_shops_municipality`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_department`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_profile_completed`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_active_theme`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_slug`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_user_id`,
			`DROP TABLE IF EXISTS public.artisan_shops`,
		},
	}
}

func createShopProductsTable() Migration {
	return Migration{
		Version: 1768900000000,
		Name:    "CreateShopProductsTable",
		Up: []string{
			`CREATE SCHEMA IF NOT EXISTS shop`,
			`CREATE TABLE shop.products (
				id UUID NOT NULL DEFAULT uuid_generate_v4(),
				shop_id UUID NOT NULL,
				name TEXT NOT NULL,
				description TEXT NULL,
				short_description TEXT NULL,
				price NUMERIC(12,2) NOT NULL DEFAULT 0,
				compare_price NUMERIC(12,2) NULL,
				currency CHAR(3) NOT NULL DEFAULT 'COP',
				category TEXT NULL,
				subcategory TEXT NULL,
				tags TEXT[] NULL DEFAULT '{}'::text[],
				materials TEXT[] NULL DEFAULT '{}'::text[],
				techniques TEXT[] NULL DEFAULT '{}'::text[],
				images TEXT[] NULL DEFAULT '{}'::text[],
				inventory INTEGER NOT NULL DEFAULT 0,
				sku TEXT NULL,
				weight NUMERIC(10,3) NULL,
				dimensions JSONB NULL DEFAULT '{}'::jsonb,
				shipping_data_complete BOOLEAN NOT NULL DEFAULT false,
				active BOOLEAN NOT NULL DEFAULT false,
				featured BOOLEAN NOT NULL DEFAULT false,
				moderation_status TEXT NOT NULL DEFAULT 'draft',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
				CONSTRAINT products_pkey PRIMARY KEY (id),
				CONSTRAINT products_shop_id_fkey FOREIGN KEY (shop_id)
					REFERENCES public.artisan_shops (id) ON DELETE CASCADE,
				CONSTRAINT products_price_check CHECK (price >= 0),
				CONSTRAINT products_inventory_check CHECK (inventory >= 0),
				CONSTRAINT products_moderation_status_check CHECK (
					moderation_status = ANY (ARRAY[
						'draft'::text, 'pending_moderation'::text, 'approved'::text,
						'approved_with_edits'::text, 'changes_requested'::text,
						'rejected'::text, 'archived'::text
					])
				)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_products_shop_id ON shop.products USING btree (shop_id)`,
			`CREATE INDEX IF NOT EXISTS idx_products_moderation_status ON shop.products USING btree (moderation_status)`,
			`CREATE INDEX IF NOT EXISTS idx_products_category ON shop.products USING btree (category)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_shop_sku ON shop.products USING btree (shop_id, sku) WHERE (sku IS NOT NULL)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS shop.idx_products_shop_sku`,
			`DROP INDEX IF EXISTS shop.idx_products_category`,
			`DROP INDEX IF EXISTS shop.idx_products_moderation_status`,
			`DROP INDEX IF EXISTS shop.idx_products_shop_id`,
			`DROP TABLE IF EXISTS shop.products`,
		},
	}
}

func moveArtisanShopsToShopSchema() Migration {
	return Migration{
		Version: 1769031699997,
		Name:    "MoveArtisanShopsToShopSchema",
		Up: []string{
			`ALTER TABLE shop.products DROP CONSTRAINT IF EXISTS products_shop_id_fkey`,
			`ALTER TABLE public.artisan_shops DROP CONSTRAINT IF EXISTS artisan_shops_user_id_fkey`,
			`ALTER TABLE public.artisan_shops DROP CONSTRAINT IF EXISTS artisan_shops_active_theme_id_fkey`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_user_id`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_shop_slug`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_department`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_municipality`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_active`,
			`DROP INDEX IF EXISTS public.idx_artisan_shops_featured`,
			`ALTER TABLE public.artisan_shops SET SCHEMA shop`,
			`ALTER TABLE shop.artisan_shops
				ADD CONSTRAINT artisan_shops_user_id_fkey
				FOREIGN KEY (user_id) REFERENCES auth.users (id) ON DELETE CASCADE`,
			`ALTER TABLE shop.products
				ADD CONSTRAINT products_shop_id_fkey
				FOREIGN KEY (shop_id) REFERENCES shop.artisan_shops (id) ON DELETE CASCADE`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_user_id ON shop.artisan_shops USING btree (user_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_artisan_shops_shop_slug ON shop.artisan_shops USING btree (shop_slug)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_department ON shop.artisan_shops USING btree (department)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_municipality ON shop.artisan_shops USING btree (municipality)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_active ON shop.artisan_shops USING btree (active)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_featured ON shop.artisan_shops USING btree (featured)`,
		},
		Down: []string{
			`ALTER TABLE shop.products DROP CONSTRAINT IF EXISTS products_shop_id_fkey`,
			`ALTER TABLE shop.artisan_shops DROP CONSTRAINT IF EXISTS artisan_shops_user_id_fkey`,
			`ALTER TABLE shop.artisan_shops DROP CONSTRAINT IF EXISTS artisan_shops_active_theme_id_fkey`,
			`DROP INDEX IF EXISTS shop.idx_artisan_shops_featured`,
			`DROP INDEX IF EXISTS shop.idx_artisan_shops_active`,
			`DROP INDEX IF EXISTS shop.idx_artisan_shops_municipality`,
			`DROP INDEX IF EXISTS shop.idx_artisan_shops_department`,
			`DROP INDEX IF EXISTS shop.idx_artisan_shops_shop_slug`,
			`DROP INDEX IF EXISTS shop.idx_artisan_shops_user_id`,
			`ALTER TABLE shop.artisan_shops SET SCHEMA public`,
			`ALTER TABLE public.artisan_shops
				ADD CONSTRAINT artisan_shops_user_id_fkey
				FOREIGN KEY (user_id) REFERENCES auth.users (id) ON DELETE CASCADE`,
			`ALTER TABLE shop.products
				ADD CONSTRAINT products_shop_id_fkey
				FOREIGN KEY (shop_id) REFERENCES public.artisan_shops (id) ON DELETE CASCADE`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_user_id ON public.artisan_shops USING btree (user_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_artisan_shops_shop_slug ON public.artisan_shops USING btree (shop_slug)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_department ON public.artisan_shops USING btree (department)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_municipality ON public.artisan_shops USING btree (municipality)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_active ON public.artisan_shops USING btree (active)`,
			`CREATE INDEX IF NOT EXISTS idx_artisan_shops_featured ON public.artisan_shops USING btree (featured)`,
		},
	}
}

func createAgentTasksTable() Migration {
	return Migration{
		Version: 1769108645141,
		Name:    "CreateAgentTasksTable",
		Up: []string{
			`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
			`CREATE TABLE public.agent_tasks (
				id UUID NOT NULL DEFAULT gen_random_uuid(),
				user_id UUID NOT NULL,
				agent_id TEXT NOT NULL,
				conversation_id UUID NULL,
				title TEXT NOT NULL,
				description TEXT NULL,
				relevance TEXT NOT NULL DEFAULT 'medium',
				progress_percentage INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'pending',
				priority INTEGER NOT NULL DEFAULT 3,
				due_date TIMESTAMP WITH TIME ZONE NULL,
				completed_at TIMESTAMP WITH TIME ZONE NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
				subtasks JSONB NULL DEFAULT '[]'::jsonb,
				notes TEXT NULL DEFAULT '',
				steps_completed JSONB NULL DEFAULT '{}'::jsonb,
				resources JSONB NULL DEFAULT '[]'::jsonb,
				time_spent INTEGER NULL DEFAULT 0,
				is_archived BOOLEAN NOT NULL DEFAULT false,
				environment TEXT NOT NULL DEFAULT 'production',
				deliverable_type TEXT NULL,
				milestone_category TEXT NULL,
				CONSTRAINT agent_tasks_pkey PRIMARY KEY (id),
				CONSTRAINT unique_user_agent_task UNIQUE (user_id, agent_id),
				CONSTRAINT agent_tasks_user_id_fkey FOREIGN KEY (user_id)
					REFERENCES auth.users (id) ON DELETE CASCADE,
				CONSTRAINT agent_tasks_progress_percentage_check CHECK (
					(progress_percentage >= 0) AND (progress_percentage <= 100)
				),
				CONSTRAINT agent_tasks_environment_check CHECK (
					environment = ANY (ARRAY['production'::text, 'staging'::text])
				),
				CONSTRAINT agent_tasks_status_check CHECK (
					status = ANY (ARRAY['pending'::text, 'in_progress'::text, 'completed'::text, 'cancelled'::text])
				),
				CONSTRAINT check_milestone_category CHECK (
					(milestone_category IS NULL) OR (
						milestone_category = ANY (ARRAY['formalization'::text, 'brand'::text, 'shop'::text, 'sales'::text, 'community'::text])
					)
				),
				CONSTRAINT agent_tasks_relevance_check CHECK (
					relevance = ANY (ARRAY['low'::text, 'medium'::text, 'high'::text])
				),
				CONSTRAINT agent_tasks_priority_check CHECK (
					(priority >= 1) AND (priority <= 5)
				)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_steps_completed ON public.agent_tasks USING gin (steps_completed)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_subtasks ON public.agent_tasks USING gin (subtasks)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_user_status ON public.agent_tasks USING btree (user_id, status)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_user_agent ON public.agent_tasks USING btree (user_id, agent_id)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_status ON public.agent_tasks USING btree (status) WHERE (NOT is_archived)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_validation_check ON public.agent_tasks USING btree (user_id, status, is_archived)
				WHERE ((status = ANY (ARRAY['pending'::text, 'in_progress'::text])) AND (is_archived = false))`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_cleanup ON public.agent_tasks USING btree (status, created_at, is_archived) WHERE (is_archived = false)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_is_archived ON public.agent_tasks USING btree (is_archived)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_deliverable_type ON public.agent_tasks USING btree (deliverable_type)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_environment ON public.agent_tasks USING btree (environment, user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_milestone_category ON public.agent_tasks USING btree (milestone_category)`,
			`CREATE INDEX IF NOT EXISTS idx_agent_tasks_user_milestone ON public.agent_tasks USING btree (user_id, milestone_category)`,
		},
		Down: []string{
			`DROP INDEX IF EXISTS public.idx_agent_tasks_user_milestone`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_milestone_category`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_environment`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_deliverable_type`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_is_archived`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_cleanup`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_validation_check`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_status`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_user_agent`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_user_status`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_subtasks`,
			`DROP INDEX IF EXISTS public.idx_agent_tasks_steps_completed`,
			`DROP TABLE IF EXISTS public.agent_tasks`,
		},
	}
}

func createPaymentsAndLedgerSchema() Migration {
	return Migration{
		Version: 1769550000000,
		Name:    "CreatePaymentsAndLedgerSchema",
		Up: []string{
			`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
			`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
			`CREATE SCHEMA IF NOT EXISTS payments`,
			`CREATE TYPE payments.sale_context AS ENUM ('marketplace', 'tenant')`,
			`CREATE TYPE payments.cart_status AS ENUM ('open', 'locked', 'converted', 'abandoned')`,
			`CREATE TYPE payments.checkout_status AS ENUM ('created', 'awaiting_payment', 'paid', 'failed', 'canceled', 'refunded', 'partial_refunded')`,
			`CREATE TYPE payments.order_status AS ENUM ('pending_fulfillment', 'delivered', 'canceled', 'refunded')`,
			`CREATE TYPE payments.charge_direction AS ENUM ('add', 'subtract')`,
			`CREATE TYPE payments.charge_scope AS ENUM ('checkout', 'order')`,
			`CREATE TYPE payments.payment_intent_status AS ENUM ('requires_payment_method', 'requires_action', 'processing', 'succeeded', 'failed', 'canceled')`,
			`CREATE TYPE payments.payment_attempt_status AS ENUM ('created', 'redirected', 'authorized', 'captured', 'failed', 'canceled')`,
			`CREATE TYPE payments.payout_status AS ENUM ('requested', 'processing', 'paid', 'failed', 'canceled')`,
			`CREATE TABLE IF NOT EXISTS payments.payment_providers (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				code text NOT NULL UNIQUE,
				display_name text NOT NULL,
				is_active boolean NOT NULL DEFAULT true,
				capabilities jsonb NOT NULL DEFAULT '{}'::jsonb,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS payments.product_prices (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				product_id uuid NOT NULL REFERENCES shop.products(id) ON DELETE CASCADE,
				context payments.sale_context NOT NULL,
				context_shop_id uuid NULL REFERENCES shop.artisan_shops(id) ON DELETE CASCADE,
				currency char(3) NOT NULL,
				amount_minor bigint NOT NULL CHECK (amount_minor >= 0),
				is_active boolean NOT NULL DEFAULT true,
				effective_from timestamptz NOT NULL DEFAULT now(),
				effective_to timestamptz NULL,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now(),
				CONSTRAINT product_prices_context_chk CHECK (
					(context = 'marketplace' AND context_shop_id IS NULL) OR
					(context = 'tenant' AND context_shop_id IS NOT NULL)
				)
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_product_prices_open ON payments.product_prices(product_id, context, context_shop_id, currency) WHERE is_active = true AND effective_to IS NULL`,
			`CREATE TABLE IF NOT EXISTS payments.charge_types (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				code text NOT NULL UNIQUE,
				direction payments.charge_direction NOT NULL,
				scope payments.charge_scope NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS payments.charge_rules (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				charge_type_id uuid NOT NULL REFERENCES payments.charge_types(id) ON DELETE RESTRICT,
				context payments.sale_context NOT NULL,
				context_shop_id uuid NULL REFERENCES shop.artisan_shops(id) ON DELETE CASCADE,
				currency char(3) NULL,
				rate_bps integer NULL CHECK (rate_bps IS NULL OR rate_bps >= 0),
				fixed_minor bigint NULL CHECK (fixed_minor IS NULL OR fixed_minor >= 0),
				priority integer NOT NULL DEFAULT 100,
				is_active boolean NOT NULL DEFAULT true,
				effective_from timestamptz NOT NULL DEFAULT now(),
				effective_to timestamptz NULL,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS payments.carts (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				buyer_user_id uuid NOT NULL REFERENCES auth.users(id) ON DELETE CASCADE,
				context payments.sale_context NOT NULL DEFAULT 'marketplace',
				context_shop_id uuid NULL REFERENCES shop.artisan_shops(id) ON DELETE CASCADE,
				currency char(3) NOT NULL DEFAULT 'COP',
				status payments.cart_status NOT NULL DEFAULT 'open',
				version integer NOT NULL DEFAULT 1,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now(),
				locked_at timestamptz NULL,
				converted_at timestamptz NULL
			)`,
			`CREATE TABLE IF NOT EXISTS payments.cart_shipping_info (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				cart_id uuid NOT NULL REFERENCES payments.carts(id) ON DELETE CASCADE,
				full_name text NOT NULL,
				email text NOT NULL,
				phone text NOT NULL,
				address text NOT NULL,
				dane_ciudad integer NOT NULL,
				desc_ciudad text NOT NULL,
				desc_depart text NOT NULL,
				postal_code text NOT NULL,
				desc_envio text NOT NULL,
				num_guia text,
				valor_flete_minor bigint DEFAULT 0,
				valor_sobre_flete_minor bigint DEFAULT 0,
				valor_total_flete_minor bigint DEFAULT 0,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS payments.cart_items (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				cart_id uuid NOT NULL REFERENCES payments.carts(id) ON DELETE CASCADE,
				product_id uuid NOT NULL REFERENCES shop.products(id) ON DELETE RESTRICT,
				seller_shop_id uuid NOT NULL REFERENCES shop.artisan_shops(id) ON DELETE RESTRICT,
				quantity integer NOT NULL CHECK (quantity > 0),
				currency char(3) NOT NULL,
				unit_price_minor bigint NOT NULL CHECK (unit_price_minor >= 0),
				price_source text NOT NULL CHECK (price_source IN ('product_base', 'override')),
				price_ref_id uuid NULL REFERENCES payments.product_prices(id) ON DELETE SET NULL,
				metadata jsonb NOT NULL DEFAULT '{}'::jsonb,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS payments.checkouts (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				cart_id uuid NOT NULL REFERENCES payments.carts(id) ON DELETE RESTRICT,
				buyer_user_id uuid NOT NULL REFERENCES auth.users(id) ON DELETE CASCADE,
				context payments.sale_context NOT NULL,
				context_shop_id uuid NULL REFERENCES shop.artisan_shops(id) ON DELETE CASCADE,
				currency char(3) NOT NULL,
				status payments.checkout_status NOT NULL DEFAULT 'created',
				subtotal_minor bigint NOT NULL DEFAULT 0 CHECK (subtotal_minor >= 0),
				charges_total_minor bigint NOT NULL DEFAULT 0 CHECK (charges_total_minor >= 0),
				total_minor bigint NOT NULL DEFAULT 0 CHECK (total_minor >= 0),
				idempotency_key text NOT NULL UNIQUE,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS payments.orders (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				checkout_id uuid NOT NULL REFERENCES payments.checkouts(id) ON DELETE CASCADE,
				seller_shop_id uuid NOT NULL REFERENCES shop.artisan_shops(id) ON DELETE RESTRICT,
				currency char(3) NOT NULL,
				gross_subtotal_minor bigint NOT NULL CHECK (gross_subtotal_minor >= 0),
				net_to_seller_minor bigint NOT NULL CHECK (net_to_seller_minor >= 0),
				status payments.order_status NOT NULL DEFAULT 'pending_fulfillment',
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now(),
				UNIQUE (checkout_id, seller_shop_id)
			)`,
			`CREATE TABLE IF NOT EXISTS payments.order_items (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				order_id uuid NOT NULL REFERENCES payments.orders(id) ON DELETE CASCADE,
				product_id uuid NOT NULL REFERENCES shop.products(id) ON DELETE RESTRICT,
				quantity integer NOT NULL CHECK (quantity > 0),
				currency char(3) NOT NULL,
				unit_price_minor bigint NOT NULL CHECK (unit_price_minor >= 0),
				line_total_minor bigint NOT NULL CHECK (line_total_minor >= 0),
				metadata jsonb NOT NULL DEFAULT '{}'::jsonb,
				created_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS payments.checkout_charges (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				checkout_id uuid NOT NULL REFERENCES payments.checkouts(id) ON DELETE CASCADE,
				charge_type_id uuid NOT NULL REFERENCES payments.charge_types(id) ON DELETE RESTRICT,
				scope payments.charge_scope NOT NULL,
				order_id uuid NULL REFERENCES payments.orders(id) ON DELETE CASCADE,
				amount_minor bigint NOT NULL,
				currency char(3) NOT NULL,
				rule_id uuid NULL REFERENCES payments.charge_rules(id) ON DELETE SET NULL,
				basis jsonb NOT NULL DEFAULT '{}'::jsonb,
				created_at timestamptz NOT NULL DEFAULT now(),
				CONSTRAINT checkout_charges_scope_chk CHECK (
					(scope = 'checkout' AND order_id IS NULL) OR
					(scope = 'order' AND order_id IS NOT NULL)
				)
			)`,
			`CREATE TABLE IF NOT EXISTS payments.payment_intents (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				checkout_id uuid NOT NULL REFERENCES payments.checkouts(id) ON DELETE RESTRICT,
				provider_id uuid NOT NULL REFERENCES payments.payment_providers(id) ON DELETE RESTRICT,
				currency char(3) NOT NULL,
				amount_minor bigint NOT NULL CHECK (amount_minor >= 0),
				status payments.payment_intent_status NOT NULL DEFAULT 'requires_payment_method',
				external_intent_id text NULL,
				provider_data jsonb NOT NULL DEFAULT '{}'::jsonb,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now(),
				UNIQUE (provider_id, external_intent_id)
			)`,
			`CREATE TABLE IF NOT EXISTS payments.payment_attempts (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				payment_intent_id uuid NOT NULL REFERENCES payments.payment_intents(id) ON DELETE CASCADE,
				attempt_no integer NOT NULL CHECK (attempt_no > 0),
				status payments.payment_attempt_status NOT NULL DEFAULT 'created',
				idempotency_key text NOT NULL UNIQUE,
				request_payload jsonb NOT NULL DEFAULT '{}'::jsonb,
				response_payload jsonb NOT NULL DEFAULT '{}'::jsonb,
				error_message text NULL,
				created_at timestamptz NOT NULL DEFAULT now(),
				UNIQUE (payment_intent_id, attempt_no)
			)`,
			`CREATE TABLE IF NOT EXISTS payments.payouts (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				shop_id uuid NOT NULL REFERENCES shop.artisan_shops(id) ON DELETE RESTRICT,
				currency char(3) NOT NULL,
				amount_minor bigint NOT NULL CHECK (amount_minor > 0),
				status payments.payout_status NOT NULL DEFAULT 'requested',
				external_payout_id text NULL,
				destination jsonb NOT NULL DEFAULT '{}'::jsonb,
				idempotency_key text NOT NULL UNIQUE,
				created_at timestamptz NOT NULL DEFAULT now(),
				updated_at timestamptz NOT NULL DEFAULT now()
			)`,
			`CREATE SCHEMA IF NOT EXISTS ledger`,
			`CREATE TYPE ledger.owner_type AS ENUM ('platform', 'shop')`,
			`CREATE TYPE ledger.account_type AS ENUM ('clearing', 'revenue', 'taxes', 'pending', 'available', 'payout_in_transit')`,
			`CREATE TABLE IF NOT EXISTS ledger.accounts (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				owner_type ledger.owner_type NOT NULL,
				owner_id uuid NULL,
				currency char(3) NOT NULL,
				account_type ledger.account_type NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now(),
				CONSTRAINT accounts_owner_chk CHECK (
					(owner_type = 'platform' AND owner_id IS NULL) OR
					(owner_type = 'shop' AND owner_id IS NOT NULL)
				),
				UNIQUE (owner_type, owner_id, currency, account_type)
			)`,
			`CREATE TABLE IF NOT EXISTS ledger.transactions (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				reference_type text NOT NULL,
				reference_id uuid NOT NULL,
				currency char(3) NOT NULL,
				description text NULL,
				idempotency_key text NOT NULL UNIQUE,
				created_at timestamptz NOT NULL DEFAULT now(),
				UNIQUE (reference_type, reference_id)
			)`,
			`CREATE TABLE IF NOT EXISTS ledger.entries (
				id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
				transaction_id uuid NOT NULL REFERENCES ledger.transactions(id) ON DELETE CASCADE,
				account_id uuid NOT NULL REFERENCES ledger.accounts(id) ON DELETE RESTRICT,
				amount_minor bigint NOT NULL CHECK (amount_minor <> 0),
				metadata jsonb NOT NULL DEFAULT '{}'::jsonb,
				created_at timestamptz NOT NULL DEFAULT now()
			)`,
		},
		Down: []string{
			`DROP SCHEMA IF EXISTS ledger CASCADE`,
			`DROP SCHEMA IF EXISTS payments CASCADE`,
		},
	}
}
